// Package storage persists uploaded pet photos on local disk behind a
// small interface so handlers stay independent of where files land.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pawhaven/pet-adoption-api/internal/model"
)

// MaxPhotosPerUpload caps the number of files accepted in one
// multipart request.
const MaxPhotosPerUpload = 5

// ErrTooManyPhotos is returned when a request carries more files than
// MaxPhotosPerUpload.
var ErrTooManyPhotos = fmt.Errorf("at most %d photos per upload", MaxPhotosPerUpload)

// ErrUnsupportedPhotoType is returned for file extensions outside the
// accepted image set.
var ErrUnsupportedPhotoType = errors.New("unsupported photo type")

var photoExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// PhotoStore saves uploaded files and removes them again when a pet is
// deleted.
type PhotoStore interface {
	// Save writes the uploaded files and returns one PetPhoto per
	// file, in upload order. When mainFirst is set the first photo is
	// flagged as the listing's main photo.
	Save(files []*multipart.FileHeader, mainFirst bool) ([]model.PetPhoto, error)
	// Remove deletes a stored file by its public ID. Missing files are
	// not an error.
	Remove(publicID string) error
}

// DiskStore is the local-filesystem PhotoStore. Files are written under
// Dir with random names and served below BaseURL.
type DiskStore struct {
	Dir     string
	BaseURL string
}

// NewDiskStore creates the upload directory if needed and returns a
// DiskStore rooted there.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save implements PhotoStore.
func (s *DiskStore) Save(files []*multipart.FileHeader, mainFirst bool) ([]model.PetPhoto, error) {
	if len(files) > MaxPhotosPerUpload {
		return nil, ErrTooManyPhotos
	}
	photos := make([]model.PetPhoto, 0, len(files))
	saved := make([]string, 0, len(files))
	for i, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !photoExtensions[ext] {
			s.cleanup(saved)
			return nil, ErrUnsupportedPhotoType
		}
		name := uuid.NewString() + ext
		if err := s.write(fh, name); err != nil {
			s.cleanup(saved)
			return nil, err
		}
		saved = append(saved, name)
		photos = append(photos, model.PetPhoto{
			URL:      s.BaseURL + "/" + name,
			PublicID: name,
			IsMain:   mainFirst && i == 0,
		})
	}
	return photos, nil
}

func (s *DiskStore) write(fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

// cleanup removes files written before a later file in the same batch
// failed, so a rejected upload leaves nothing behind.
func (s *DiskStore) cleanup(names []string) {
	for _, n := range names {
		_ = os.Remove(filepath.Join(s.Dir, n))
	}
}

// Remove implements PhotoStore.
func (s *DiskStore) Remove(publicID string) error {
	// publicID is a bare generated filename; reject anything that
	// could escape the upload directory.
	if publicID == "" || strings.ContainsAny(publicID, "/\\") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, publicID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
