package drawer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"drawer-go/internal/model"
)

// sniffLen is the number of leading bytes http.DetectContentType looks at.
const sniffLen = 512

// Importer mirrors a local directory tree into an owner's forest: one
// Directory per local directory, one File per regular file.
type Importer struct {
	dirs   *DirectoryService
	files  *FileService
	fsmgr  FilesystemManager
	logger Logger
}

// NewImporter creates an Importer on top of the directory and file services.
func NewImporter(dirs *DirectoryService, files *FileService, fsmgr FilesystemManager, logger Logger) *Importer {
	return &Importer{dirs: dirs, files: files, fsmgr: fsmgr, logger: logger}
}

// ImportResult summarizes an import.
type ImportResult struct {
	Root        *model.Directory
	Directories int
	Files       int
	Skipped     int
}

// Import walks root and records it under parentID (empty for a new root).
// Each directory and file is created through the services, so every
// validation and ownership rule applies; an error stops the walk and leaves
// what was already imported in place.
func (im *Importer) Import(ctx context.Context, owner string, root *Path, parentID string) (*ImportResult, error) {
	if !root.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root.String())
	}

	result := &ImportResult{}
	dir, err := im.importDir(ctx, owner, root, root.String(), parentID, result)
	if err != nil {
		return result, err
	}
	result.Root = dir

	im.logger.Info("tree imported",
		"path", root.String(),
		"root", dir.ID,
		"directories", result.Directories,
		"files", result.Files,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (im *Importer) importDir(ctx context.Context, owner string, p *Path, rootPath, parentID string, result *ImportResult) (*model.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := im.dirs.Create(ctx, p.Name(), owner, parentID)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", p.String(), err)
	}
	result.Directories++

	entries, err := im.fsmgr.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.String(), err)
	}

	for _, entry := range entries {
		ignored, err := im.fsmgr.IsIgnored(entry, rootPath)
		if err != nil {
			return nil, fmt.Errorf("checking ignore rules for %s: %w", entry.String(), err)
		}
		if ignored {
			im.logger.Debug("skipping ignored path", "path", entry.String())
			result.Skipped++
			continue
		}

		if entry.IsDir() {
			if _, err := im.importDir(ctx, owner, entry, rootPath, dir.ID, result); err != nil {
				return nil, err
			}
			continue
		}

		mimeType, err := im.sniff(entry)
		if err != nil {
			return nil, err
		}
		if _, err := im.files.Register(ctx, entry.Name(), mimeType, entry.Size(), owner, dir.ID); err != nil {
			return nil, fmt.Errorf("importing %s: %w", entry.String(), err)
		}
		result.Files++
	}

	return dir, nil
}

// sniff reads the head of a file and derives its MIME type.
func (im *Importer) sniff(p *Path) (string, error) {
	r, err := im.fsmgr.Open(p)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", p.String(), err)
	}
	defer r.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("reading %s: %w", p.String(), err)
	}
	return DetectType(p.Name(), head[:n]), nil
}

// DetectType derives a MIME type from a file's leading bytes. When the
// content only sniffs as generic binary or plain text, the file extension
// is consulted for something more specific. The result never exceeds
// MaxTypeLength characters.
func DetectType(name string, head []byte) string {
	t := http.DetectContentType(head)
	if t == "application/octet-stream" || strings.HasPrefix(t, "text/plain") {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			t = byExt
		}
	}
	return truncateRunes(t, MaxTypeLength)
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
