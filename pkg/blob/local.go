// Package blob stores attachment files on the local filesystem, namespaced
// by record identifier, and maps each stored blob to the public address the
// web server serves it from.
package blob

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
)

// Store writes blobs under BaseDir/<recordID>/<filename> and reports their
// public address as PublicPrefix/<recordID>/<filename>.
type Store struct {
	BaseDir      string
	PublicPrefix string
}

// NewStore creates the base directory if needed.
func NewStore(baseDir, publicPrefix string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload base dir %s: %w", baseDir, err)
	}
	return &Store{BaseDir: baseDir, PublicPrefix: publicPrefix}, nil
}

// Save stores one uploaded file under the record's directory and returns
// its public address. The original filename is kept, stripped of any path
// components.
func (s *Store) Save(recordID string, fh *multipart.FileHeader) (string, error) {
	name := filepath.Base(filepath.Clean(fh.Filename))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", fh.Filename)
	}
	dir := filepath.Join(s.BaseDir, recordID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return s.Address(recordID, name), nil
}

// Remove deletes one blob; a missing blob is not an error.
func (s *Store) Remove(recordID, filename string) error {
	name := filepath.Base(filepath.Clean(filename))
	err := os.Remove(filepath.Join(s.BaseDir, recordID, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll deletes every blob stored under the record's directory.
func (s *Store) RemoveAll(recordID string) error {
	if recordID == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.BaseDir, recordID))
}

// Address returns the public address a stored blob is served from.
func (s *Store) Address(recordID, filename string) string {
	return path.Join(s.PublicPrefix, recordID, filename)
}
