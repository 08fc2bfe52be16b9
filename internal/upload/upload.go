// Package upload stores attachment blobs on local disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"
)

var ErrNotFound = errors.New("upload: not found")

var keyPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[a-z0-9]{1,10})?$`)

// Blobs is a diskv-backed blob store. Keys are a UUID plus the original
// file extension, sharded into directories by their first two characters.
type Blobs struct {
	d       *diskv.Diskv
	baseURL string
}

// New opens a store rooted at dir. URLs are built as baseURL/files/<key>.
func New(dir, baseURL string) *Blobs {
	return &Blobs{
		d: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    func(key string) []string { return []string{key[:2]} },
			CacheSizeMax: 4 * 1024 * 1024,
		}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put stores r under a fresh key derived from name and returns the key.
func (b *Blobs) Put(name string, r io.Reader) (string, error) {
	key := uuid.NewString() + extension(name)
	if err := b.d.WriteStream(key, r, true); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return key, nil
}

// Get returns the blob for key and its content type.
func (b *Blobs) Get(key string) ([]byte, string, error) {
	if !keyPattern.MatchString(key) || !b.d.Has(key) {
		return nil, "", ErrNotFound
	}
	data, err := b.d.Read(key)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", key, err)
	}
	ctype := mime.TypeByExtension(filepath.Ext(key))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	return data, ctype, nil
}

func (b *Blobs) Delete(key string) error {
	if !keyPattern.MatchString(key) || !b.d.Has(key) {
		return ErrNotFound
	}
	return b.d.Erase(key)
}

// URL is the public address of key.
func (b *Blobs) URL(key string) string {
	return b.baseURL + "/files/" + key
}

func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 11 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
