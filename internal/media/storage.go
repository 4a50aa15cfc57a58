// Package media stores listing images and brochures under per-project prefixes.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid object path")
)

type Object struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modTime"`
}

// Storage is a flat object store addressed by slash-separated paths.
type Storage interface {
	Put(ctx context.Context, objectPath string, r io.Reader) (Object, error)
	Delete(ctx context.Context, objectPath string) error
	List(ctx context.Context, prefix string) ([]Object, error)
}

// LocalStorage keeps objects on disk below Root and links them under BaseURL.
type LocalStorage struct {
	Root    string
	BaseURL string
}

func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStorage{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// cleanPath rejects absolute paths and anything escaping the root.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

func (s *LocalStorage) object(objectPath string, info fs.FileInfo) Object {
	return Object{
		Path:        objectPath,
		Name:        path.Base(objectPath),
		URL:         s.BaseURL + "/" + objectPath,
		ContentType: mime.TypeByExtension(path.Ext(objectPath)),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}
}

// Put writes to a temporary file first so readers never see a partial object.
func (s *LocalStorage) Put(ctx context.Context, objectPath string, r io.Reader) (Object, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return Object{}, err
	}
	dst := filepath.Join(s.Root, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Object{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Object{}, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return Object{}, err
	}
	if err := tmp.Close(); err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Object{}, err
	}

	info, err := os.Stat(dst)
	if err != nil {
		return Object{}, err
	}
	return s.object(p, info), nil
}

func (s *LocalStorage) Delete(ctx context.Context, objectPath string) error {
	p, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.Root, filepath.FromSlash(p)))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// List returns the objects directly below prefix, newest first.
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]Object, error) {
	p, err := cleanPath(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.Root, filepath.FromSlash(p)))
	if errors.Is(err, fs.ErrNotExist) {
		return []Object{}, nil
	}
	if err != nil {
		return nil, err
	}

	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objects = append(objects, s.object(p+"/"+e.Name(), info))
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].ModTime.After(objects[j].ModTime) })
	return objects, nil
}
