// Package corpus gives read access to the published incident reports that new
// drafts are compared against.
package corpus

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a path does not exist in the corpus
var ErrNotFound = errors.New("corpus entry not found")

// Entry is one item of a directory listing
type Entry struct {
	Name string `json:"name"` // Base name
	Path string `json:"path"` // Slash-separated path relative to the corpus root
	Dir  bool   `json:"dir"`
}

// Store is the corpus-access capability shared by anything that reads published reports
type Store interface {
	// Fetch returns the content of a file
	Fetch(ctx context.Context, path string) (string, error)

	// List returns the entries of a directory in listing order
	List(ctx context.Context, dir string) ([]Entry, error)
}
