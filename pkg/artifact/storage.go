package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/vibekit/rulehub/pkg/generate"
	"github.com/vibekit/rulehub/pkg/log"
	"github.com/vibekit/rulehub/pkg/wizard"
)

var (
	ErrMissingDir    = errors.New("missing artifact directory")
	ErrInvalidName   = errors.New("invalid artifact name")
	ErrUnknownFormat = errors.New("unknown artifact format")
)

// FileStorage writes artifacts into Dir. When BaseURL is set, download
// URLs are BaseURL joined with the file name; otherwise they are file://
// URLs.
type FileStorage struct {
	Dir     string
	BaseURL string
}

// NewFileStorage creates a [FileStorage] and its directory.
func NewFileStorage(dir, baseURL string) (*FileStorage, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, ErrMissingDir
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", dir, err)
	}

	err = os.MkdirAll(abs, 0o700)
	if err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	return &FileStorage{Dir: abs, BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}, nil
}

// Upload writes data as rulehub-<id><ext> and returns its download URL.
// The file is written to a temporary name first and renamed into place.
func (s *FileStorage) Upload(ctx context.Context, packageID string, data []byte, format wizard.OutputFormat) (string, error) {
	ext := format.Extension()
	if ext == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	name := generate.FileName(packageID, ext)

	p, err := s.Path(name)
	if err != nil {
		return "", err
	}

	tmp := p + ".tmp"

	err = os.WriteFile(tmp, data, 0o600)
	if err != nil {
		_ = os.Remove(tmp)

		return "", fmt.Errorf("write artifact: %w", err)
	}

	err = os.Rename(tmp, p)
	if err != nil {
		_ = os.Remove(tmp)

		return "", fmt.Errorf("write artifact: %w", err)
	}

	log.WithContext(ctx).DebugContext(ctx, "stored artifact", "path", p, "bytes", len(data))

	return s.URL(name), nil
}

// URL returns the download URL for a stored file name.
func (s *FileStorage) URL(name string) string {
	if s.BaseURL != "" {
		return s.BaseURL + "/" + url.PathEscape(name)
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.Dir, name))}

	return u.String()
}

// Path returns the filesystem path for name. Names containing path
// separators are rejected.
func (s *FileStorage) Path(name string) (string, error) {
	if s == nil || strings.TrimSpace(s.Dir) == "" {
		return "", ErrMissingDir
	}

	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return filepath.Join(s.Dir, name), nil
}

// Open reads a stored artifact.
func (s *FileStorage) Open(name string) ([]byte, error) {
	p, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(p) //nolint:gosec // G304: name is validated by Path.
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	return b, nil
}

// Remove deletes a stored artifact. Missing files are not an error.
func (s *FileStorage) Remove(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove artifact: %w", err)
	}

	return nil
}
