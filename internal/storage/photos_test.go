package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multipartFiles builds real *multipart.FileHeader values by round-
// tripping a form through the HTTP machinery.
func multipartFiles(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := w.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["photos"]
}

func TestDiskStoreSave(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads/")
	require.NoError(t, err)
	assert.Equal(t, "/uploads", s.BaseURL)

	photos, err := s.Save(multipartFiles(t, "a.jpg", "b.PNG"), true)
	require.NoError(t, err)
	require.Len(t, photos, 2)

	assert.True(t, photos[0].IsMain)
	assert.False(t, photos[1].IsMain)
	for _, p := range photos {
		assert.Equal(t, "/uploads/"+p.PublicID, p.URL)
		_, err := os.Stat(filepath.Join(dir, p.PublicID))
		assert.NoError(t, err)
	}
}

func TestDiskStoreSaveRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads")
	require.NoError(t, err)

	_, err = s.Save(multipartFiles(t, "a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg"), true)
	assert.ErrorIs(t, err, ErrTooManyPhotos)

	// A bad extension mid-batch fails the whole upload and removes
	// already written files.
	_, err = s.Save(multipartFiles(t, "a.jpg", "virus.exe"), true)
	assert.ErrorIs(t, err, ErrUnsupportedPhotoType)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiskStoreRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads")
	require.NoError(t, err)

	photos, err := s.Save(multipartFiles(t, "a.jpg"), false)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.False(t, photos[0].IsMain)

	require.NoError(t, s.Remove(photos[0].PublicID))
	_, err = os.Stat(filepath.Join(dir, photos[0].PublicID))
	assert.True(t, os.IsNotExist(err))

	// Missing files and traversal attempts are no-ops.
	assert.NoError(t, s.Remove(photos[0].PublicID))
	assert.NoError(t, s.Remove("../escape.jpg"))
}
