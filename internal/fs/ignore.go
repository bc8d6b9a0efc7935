package fs

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// defaultIgnorePatterns apply to every import, before config and .drawerignore.
var defaultIgnorePatterns = []string{IgnoreFileName}

// rule is one parsed line of an ignore list.
//
//	*.tmp     any entry whose name matches
//	build/    directories only
//	/vendor   anchored at the import root
//	docs/*.md matched against the whole relative path
//	!keep.tmp re-includes an entry an earlier rule excluded
type rule struct {
	glob     string
	negate   bool
	dirOnly  bool
	fullPath bool
}

func (r rule) matches(rel string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	subject := path.Base(rel)
	if r.fullPath {
		subject = rel
	}
	ok, err := path.Match(r.glob, subject)
	return err == nil && ok
}

// IgnoreMatcher decides which entries of an imported tree are skipped.
// Rules are evaluated in order and the last one that matches wins.
type IgnoreMatcher struct {
	rules []rule
}

// NewIgnoreMatcher parses raw ignore lines. Blank lines and '#' comments
// are dropped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var r rule
		if strings.HasPrefix(line, "!") {
			r.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			r.dirOnly = true
			line = strings.TrimRight(line, "/")
		}
		if strings.HasPrefix(line, "/") {
			r.fullPath = true
			line = strings.TrimLeft(line, "/")
		}
		if strings.Contains(line, "/") {
			r.fullPath = true
		}
		if line == "" {
			continue
		}
		r.glob = line
		m.rules = append(m.rules, r)
	}
	return m
}

// Match reports whether rel, a path relative to the import root, is ignored.
// A skipped directory takes its whole subtree with it.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	ignored := false
	for _, r := range m.rules {
		if r.matches(rel, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// ParseIgnoreFile returns the lines of an ignore file, or nil when it does
// not exist.
func ParseIgnoreFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
