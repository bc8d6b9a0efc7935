package model

import "time"

// Directory is a node in an owner's directory forest.
type Directory struct {
	ID           string // UUID
	Name         string
	CreatedOn    time.Time
	LastModified time.Time
	ParentID     string // Foreign key to Directory; empty for a root directory
	Owner        string // Foreign key to Owner
}

// IsRoot reports whether the directory has no parent.
func (d *Directory) IsRoot() bool {
	return d.ParentID == ""
}

// File is the metadata of an uploaded file. The bytes themselves are not tracked.
type File struct {
	ID          string // UUID
	Name        string
	Type        string // MIME type
	Size        int64  // Size in bytes
	UploadedOn  time.Time
	DirectoryID string // Foreign key to Directory; empty when unfiled
	Owner       string // Foreign key to Owner
}

// IsUnfiled reports whether the file is not attached to any directory.
func (f *File) IsUnfiled() bool {
	return f.DirectoryID == ""
}

// Operation is a journal entry for a CLI command that mutated the store.
type Operation struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt *time.Time // nil while running
	Operation  string
	Parameters string
	Status     string
}
