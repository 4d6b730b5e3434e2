package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var validExt = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// MediaStore keeps uploaded files on the local filesystem under a root directory.
type MediaStore struct {
	root      string
	urlPrefix string
}

// NewMediaStore creates the root directory if needed.
func NewMediaStore(root, urlPrefix string) (*MediaStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "user_images"), 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &MediaStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Save writes r under user_images/ with a random name ending in ext and
// returns the media-relative path. ext must come from the detected content
// type, never from the client filename.
func (s *MediaStore) Save(ext string, r io.Reader) (string, error) {
	ext = strings.ToLower(ext)
	if !validExt.MatchString(ext) {
		return "", fmt.Errorf("invalid media extension %q", ext)
	}
	rel := path.Join("user_images", uuid.NewString()+ext)

	f, err := os.OpenFile(s.Path(rel), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(s.Path(rel))
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(s.Path(rel))
		return "", fmt.Errorf("close media file: %w", err)
	}
	return rel, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *MediaStore) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	if err := os.Remove(s.Path(rel)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path maps a media-relative path to its location on disk.
func (s *MediaStore) Path(rel string) string {
	clean := path.Clean("/" + rel)
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

// URL maps a media-relative path to the public URL it is served from.
func (s *MediaStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return s.urlPrefix + path.Clean("/"+rel)
}

// Root returns the directory served as static media.
func (s *MediaStore) Root() string {
	return s.root
}
