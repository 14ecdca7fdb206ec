package storage

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxBuktiSize caps receipt images at 2MB.
const MaxBuktiSize = 2 << 20

// BuktiStore keeps receipt images (bukti transaksi) on local disk under a
// single directory, named by UUID so uploads never collide.
type BuktiStore struct {
	Dir string
}

func NewBuktiStore(dir string) (*BuktiStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bukti dir: %w", err)
	}
	return &BuktiStore{Dir: dir}, nil
}

// Validate checks type and size before anything is written.
func (s *BuktiStore) Validate(fh *multipart.FileHeader) error {
	if fh.Size > MaxBuktiSize {
		return fmt.Errorf("ukuran gambar maksimal 2MB")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return nil
	}
	return fmt.Errorf("format gambar harus jpeg, png, atau jpg")
}

// Save stores the uploaded file and returns the generated filename.
func (s *BuktiStore) Save(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if err := s.Validate(fh); err != nil {
		return "", err
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, filepath.Join(s.Dir, name)); err != nil {
		return "", fmt.Errorf("save bukti: %w", err)
	}
	return name, nil
}

// Delete removes a stored receipt. A missing file is not an error: the row
// delete already happened and must not be rolled back for a lost blob.
func (s *BuktiStore) Delete(name string) {
	if name == "" {
		return
	}
	_ = os.Remove(filepath.Join(s.Dir, name))
}

// Path returns the on-disk path for a stored filename.
func (s *BuktiStore) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}
