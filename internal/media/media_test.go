package media

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files/")
	require.NoError(t, err)
	return s
}

func TestLocalStorageLifecycle(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	obj, err := s.Put(ctx, "projects/p1/images/a.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/projects/p1/images/a.png", obj.URL)
	assert.Equal(t, "a.png", obj.Name)
	assert.Equal(t, int64(len(pngHeader)), obj.Size)

	objects, err := s.List(ctx, "projects/p1/images")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "image/png", objects[0].ContentType)

	empty, err := s.List(ctx, "projects/p2/images")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Delete(ctx, "projects/p1/images/a.png"))
	assert.ErrorIs(t, s.Delete(ctx, "projects/p1/images/a.png"), ErrNotFound)
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	s := newStorage(t)
	for _, p := range []string{"", "/etc/passwd", "../outside", "projects/../../x", "a\\b"} {
		_, err := s.Put(context.Background(), p, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func multipartUpload(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadListDelete(t *testing.T) {
	s := newStorage(t)
	h := NewMediaHandler(s)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "/api/media/upload?projectId=p1&kind=documents", "Brochure 2024.pdf", []byte("%PDF-1.4\n%...")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var obj Object
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &obj))
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.True(t, strings.HasPrefix(obj.Path, "projects/p1/documents/"))
	assert.True(t, strings.HasSuffix(obj.Path, "-Brochure_2024.pdf"))

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/media?projectId=p1&kind=documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var objects []Object
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &objects))
	require.Len(t, objects, 1)
	assert.Equal(t, obj.Path, objects[0].Path)

	rec = httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/media/delete?path="+obj.Path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/media/delete?path="+obj.Path, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejectsWrongType(t *testing.T) {
	h := NewMediaHandler(newStorage(t))

	tests := []struct {
		name    string
		target  string
		file    string
		content []byte
	}{
		{"text as image", "/api/media/upload?projectId=p1&kind=images", "notes.png", []byte("just some text")},
		{"png as document", "/api/media/upload?projectId=p1&kind=documents", "a.pdf", pngHeader},
		{"bad kind", "/api/media/upload?projectId=p1&kind=videos", "a.png", pngHeader},
		{"bad project", "/api/media/upload?projectId=../p1&kind=images", "a.png", pngHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Upload(rec, multipartUpload(t, tt.target, tt.file, tt.content))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	h := NewMediaHandler(newStorage(t))
	big := append(append([]byte{}, pngHeader...), make([]byte, MaxUploadBytes)...)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "/api/media/upload?projectId=p1&kind=images", "big.png", big))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteOutsideProjects(t *testing.T) {
	h := NewMediaHandler(newStorage(t))
	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/media/delete?path=../../etc/passwd", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCleansPathBeforeProjectCheck(t *testing.T) {
	s := newStorage(t)
	_, err := s.Put(context.Background(), "other.pdf", bytes.NewReader([]byte("%PDF-1.4")))
	require.NoError(t, err)

	h := NewMediaHandler(s)
	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/media/delete?path=projects/../other.pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err = os.Stat(filepath.Join(s.Root, "other.pdf"))
	assert.NoError(t, err)
}

func TestFileServer(t *testing.T) {
	s := newStorage(t)
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root, "projects", "p1", "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, "projects", "p1", "images", "a.png"), pngHeader, 0o644))

	srv := http.StripPrefix("/files/", FileServer(s.Root))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/projects/p1/images/a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/projects/p1/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/files/projects/p1/images/a.png", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
