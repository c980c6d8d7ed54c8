package domain

import (
	"context"
	"errors"
	"time"
)

// Store is the short-lived blob store backing artwork materialization.
type Store interface {
	// SaveFile writes the bytes under a collision-resistant name and returns
	// the servable relative URL. The write always happens before any record
	// referencing the URL is persisted.
	SaveFile(ctx context.Context, data []byte, originalName string) (*SavedFile, error)

	// GetFile loads a stored file by its filename for serving.
	GetFile(ctx context.Context, filename string) (*FileContent, error)

	// DeleteFile removes a single file. Returns false when the file does not
	// exist. Filenames carrying path separators or ".." are rejected.
	DeleteFile(ctx context.Context, filename string) (bool, error)

	// ListFiles enumerates stored files for monitoring.
	ListFiles(ctx context.Context) ([]FileInfo, error)

	// Promote pins a file to an order so TTL sweeps skip it. Idempotent: a
	// file already promoted stays with its first order.
	Promote(ctx context.Context, filename string, orderID int64) error

	// CleanupOldFiles removes every unpromoted file older than the cutoff.
	CleanupOldFiles(ctx context.Context, olderThan time.Duration) (CleanupResult, error)
}

type SavedFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type FileContent struct {
	Filename    string
	ContentType string
	Data        []byte
}

type FileInfo struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Promoted  bool      `json:"promoted"`
}

type CleanupResult struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

var (
	ErrInvalidFilename = errors.New("invalid_filename")
	ErrEmptyFile       = errors.New("empty_file")
	ErrFileTooLarge    = errors.New("file_too_large")
	ErrNotFound        = errors.New("not_found")
)
