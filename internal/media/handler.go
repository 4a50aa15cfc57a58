package media

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"

	"propdesk/pkg/apperror"
	"propdesk/pkg/httpx"
	"propdesk/pkg/logger"

	"github.com/google/uuid"
)

const MaxUploadBytes = 10 << 20

var (
	projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	unsafeName       = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// accepted maps each upload kind to the content types it takes.
var accepted = map[string]map[string]bool{
	"images":    {"image/jpeg": true, "image/png": true, "image/webp": true},
	"documents": {"application/pdf": true},
}

type MediaHandler struct {
	Storage Storage
}

func NewMediaHandler(storage Storage) *MediaHandler {
	return &MediaHandler{Storage: storage}
}

// Prefix is where a project's objects of one kind live.
func Prefix(projectID, kind string) string {
	return fmt.Sprintf("projects/%s/%s", projectID, kind)
}

func projectAndKind(r *http.Request) (string, string, error) {
	projectID := r.URL.Query().Get("projectId")
	if !projectIDPattern.MatchString(projectID) {
		return "", "", apperror.Invalid("invalid projectId parameter")
	}
	kind := r.URL.Query().Get("kind")
	if _, ok := accepted[kind]; !ok {
		return "", "", apperror.Invalid("kind must be images or documents")
	}
	return projectID, kind, nil
}

// objectName keeps a readable, filesystem-safe form of the uploaded file name.
func objectName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "file"
	}
	if len(base) > 100 {
		base = base[len(base)-100:]
	}
	return uuid.NewString() + "-" + base
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodPost) {
		return
	}
	projectID, kind, err := projectAndKind(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		httpx.Error(w, apperror.Invalid("upload must be multipart/form-data under 10 MiB"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, apperror.Invalid("missing file field"))
		return
	}
	defer file.Close()

	if header.Size > MaxUploadBytes {
		httpx.Error(w, apperror.Invalid("file exceeds 10 MiB"))
		return
	}

	br := bufio.NewReaderSize(file, 512)
	head, _ := br.Peek(512)
	contentType := http.DetectContentType(head)
	if !accepted[kind][contentType] {
		httpx.Error(w, apperror.Invalid("%s are not accepted as %s", contentType, kind))
		return
	}

	obj, err := h.Storage.Put(r.Context(), Prefix(projectID, kind)+"/"+objectName(header.Filename), br)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to store upload for project %s: %v", projectID, err)
		httpx.Error(w, apperror.Internal("failed to store file", err))
		return
	}
	obj.ContentType = contentType
	httpx.JSON(w, http.StatusCreated, obj)
}

func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}
	projectID, kind, err := projectAndKind(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	objects, err := h.Storage.List(r.Context(), Prefix(projectID, kind))
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list media for project %s: %v", projectID, err)
		httpx.Error(w, apperror.Internal("failed to list files", err))
		return
	}
	httpx.JSON(w, http.StatusOK, objects)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodDelete) {
		return
	}
	objectPath, err := cleanPath(r.URL.Query().Get("path"))
	if err != nil || !strings.HasPrefix(objectPath, "projects/") {
		httpx.Error(w, apperror.Invalid("path must point inside a project"))
		return
	}

	err = h.Storage.Delete(r.Context(), objectPath)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, apperror.NotFound("file not found", ""))
	case errors.Is(err, ErrInvalidPath):
		httpx.Error(w, apperror.Invalid("invalid path"))
	case err != nil:
		logger.Sugar.Errorf("Handler: Failed to delete %s: %v", objectPath, err)
		httpx.Error(w, apperror.Internal("failed to delete file", err))
	default:
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("File deleted successfully"))
	}
}

// FileServer serves stored objects read-only. Directory listings are refused.
func FileServer(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") || strings.Contains(r.URL.Path, "/.") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
