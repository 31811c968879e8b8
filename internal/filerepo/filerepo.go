// Package filerepo provides path composition and file management for
// synced media and metadata. All access goes through an afero filesystem
// so tests can run fully in memory.
package filerepo

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Repository stores downloaded media and metadata under a base directory.
type Repository struct {
	fs   afero.Fs
	base string
}

// NewOS returns a repository over the operating system filesystem.
func NewOS(baseDir string) *Repository {
	return New(afero.NewOsFs(), baseDir)
}

// New returns a repository over the provided filesystem.
func New(fs afero.Fs, baseDir string) *Repository {
	return &Repository{fs: fs, base: strings.TrimRight(baseDir, "/")}
}

// BaseDir returns the repository root.
func (r *Repository) BaseDir() string {
	return r.base
}

// Fs exposes the underlying filesystem.
func (r *Repository) Fs() afero.Fs {
	return r.fs
}

// illegal characters for cross-platform file names.
const invalidFileNameChars = "<>:\"/\\|?*"

// ValidFileName sanitizes a single path segment, replacing characters
// that are not portable across filesystems.
func ValidFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, ch := range name {
		if ch < 0x20 || strings.ContainsRune(invalidFileNameChars, ch) {
			b.WriteRune('-')
			continue
		}
		b.WriteRune(ch)
	}
	return strings.TrimSpace(b.String())
}

// MediaPath composes the absolute path for the given sanitized segments
// under the media root.
func (r *Repository) MediaPath(parts ...string) string {
	return path.Join(append([]string{r.base, "media"}, parts...)...)
}

// MetadataPath composes the absolute path for the given sanitized
// segments under the metadata root. Images and subtitles live here.
func (r *Repository) MetadataPath(parts ...string) string {
	return path.Join(append([]string{r.base, "metadata"}, parts...)...)
}

// CombinePath joins a directory with a file name.
func CombinePath(dir, name string) string {
	return path.Join(dir, name)
}

// ParentPath returns the directory containing the given path.
func ParentPath(p string) string {
	return path.Dir(p)
}

// Exists reports whether the path exists.
func (r *Repository) Exists(p string) (bool, error) {
	_, err := r.fs.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", p, err)
}

// FileSize returns the size of the file at the given path in bytes.
func (r *Repository) FileSize(p string) (int64, error) {
	info, err := r.fs.Stat(p)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", p)
	}
	return info.Size(), nil
}

// DeleteFile removes a single file. Missing files are not an error.
func (r *Repository) DeleteFile(p string) error {
	if err := r.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	return nil
}

// DeleteDirectory removes a directory tree. Missing directories are not
// an error.
func (r *Repository) DeleteDirectory(p string) error {
	if err := r.fs.RemoveAll(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete directory %s: %w", p, err)
	}
	return nil
}

// EnsureDir creates the directory and any missing parents.
func (r *Repository) EnsureDir(p string) error {
	if err := r.fs.MkdirAll(p, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", p, err)
	}
	return nil
}

// WriteFile streams content to the given path, creating parent
// directories as needed. Returns the number of bytes written.
func (r *Repository) WriteFile(p string, content io.Reader) (int64, error) {
	if err := r.EnsureDir(path.Dir(p)); err != nil {
		return 0, err
	}
	f, err := r.fs.Create(p)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", p, err)
	}
	written, err := io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = r.fs.Remove(p)
		return 0, fmt.Errorf("write %s: %w", p, err)
	}
	return written, nil
}

// ReadFile returns the full content of the file at the given path.
func (r *Repository) ReadFile(p string) ([]byte, error) {
	data, err := afero.ReadFile(r.fs, p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// IsDirEmpty reports whether the directory has no entries. A missing
// directory counts as empty.
func (r *Repository) IsDirEmpty(p string) (bool, error) {
	entries, err := afero.ReadDir(r.fs, p)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read dir %s: %w", p, err)
	}
	return len(entries) == 0, nil
}
