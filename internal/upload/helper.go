// Package upload handles uploaded files on disk: receiving them, moving them
// into named directories, reading them back and opening them as record
// sources with a layout.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/bulkload/internal/bulk"
	"github.com/JonMunkholm/bulkload/internal/record"
	"github.com/JonMunkholm/bulkload/internal/targets"
)

var (
	// ErrUnknownDir is returned for a base directory name that is not configured.
	ErrUnknownDir = errors.New("unknown upload directory")

	// ErrUnsafeName is returned for file names that would escape their directory.
	ErrUnsafeName = errors.New("unsafe file name")
)

// Dirs maps logical directory names ("incoming", "archive") to paths.
type Dirs map[string]string

// Resolve returns the path registered under name.
func (d Dirs) Resolve(name string) (string, error) {
	p, ok := d[name]
	if !ok || p == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownDir, name)
	}
	return p, nil
}

// Helper wraps one uploaded file stored on disk.
type Helper struct {
	path      string // current location
	name      string // name the client uploaded it as
	dirs      Dirs
	layoutDir string
}

// NewHelper wraps a file already saved at path. name is the client file
// name, used in messages.
func NewHelper(path, name string, dirs Dirs, layoutDir string) *Helper {
	if name == "" {
		name = filepath.Base(path)
	}
	return &Helper{path: path, name: name, dirs: dirs, layoutDir: layoutDir}
}

// Receive stores r in dir under a generated name and returns a helper for it.
func Receive(r io.Reader, dir, name string, dirs Dirs, layoutDir string) (*Helper, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.CreateTemp(dir, uuid.NewString()+"-*"+safeExt(name))
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("save upload: %w", err)
	}
	return NewHelper(f.Name(), name, dirs, layoutDir), nil
}

func safeExt(name string) string {
	ext := filepath.Ext(name)
	if len(ext) > 8 || strings.ContainsAny(ext, `/\*`) {
		return ""
	}
	return ext
}

// Path returns the current location of the file.
func (h *Helper) Path() string { return h.path }

// Name returns the client file name.
func (h *Helper) Name() string { return h.name }

// MoveTo moves the file into the directory registered as dirName under
// fileName, and tracks the new location.
func (h *Helper) MoveTo(dirName, fileName string) error {
	base, err := h.dirs.Resolve(dirName)
	if err != nil {
		return err
	}
	if fileName == "" || fileName != filepath.Base(fileName) || fileName == ".." {
		return fmt.Errorf("%w: %q", ErrUnsafeName, fileName)
	}
	if err := os.MkdirAll(base, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dirName, err)
	}

	dest := filepath.Join(base, fileName)
	if err := os.Rename(h.path, dest); err != nil {
		// rename fails across file systems
		if cerr := copyFile(h.path, dest); cerr != nil {
			return fmt.Errorf("move upload to %s: %w", dirName, errors.Join(err, cerr))
		}
		_ = os.Remove(h.path)
	}
	h.path = dest
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Bytes reads the whole file.
func (h *Helper) Bytes() ([]byte, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", h.name, err)
	}
	return data, nil
}

// Remove deletes the file.
func (h *Helper) Remove() error {
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ApplyFormat loads the layout named layoutName from the layout directory.
func (h *Helper) ApplyFormat(layoutName string) (*Validator, error) {
	if layoutName == "" || layoutName != filepath.Base(layoutName) {
		return nil, fmt.Errorf("%w: layout %q", ErrUnsafeName, layoutName)
	}
	layout, err := record.LoadLayout(filepath.Join(h.layoutDir, layoutName+".yaml"))
	if err != nil {
		return nil, err
	}
	return h.WithLayout(layout), nil
}

// WithLayout binds an already loaded layout.
func (h *Helper) WithLayout(layout *record.Layout) *Validator {
	return &Validator{helper: h, layout: layout}
}

// Validator opens the file of a Helper with a layout.
type Validator struct {
	helper *Helper
	layout *record.Layout
}

// Layout returns the bound layout.
func (v *Validator) Layout() *record.Layout { return v.layout }

// Open returns a record source over the file. The caller owns the source.
func (v *Validator) Open() (record.Source, error) {
	f, err := os.Open(v.helper.path)
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", v.helper.name, err)
	}
	var size int64
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}

	src, err := record.NewSource(f, size, v.layout)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return src, nil
}

// ValidateTarget validates the file against a registered target.
func (v *Validator) ValidateTarget(def targets.Definition, opts targets.RunOptions) (targets.Validated, error) {
	src, err := v.Open()
	if err != nil {
		return nil, err
	}
	return def.Validate(src, v.helper.name, opts)
}

// ValidateWith validates the file with s.
func ValidateWith[T any](v *Validator, s bulk.Strategy[T], opts ...bulk.Option) (*bulk.Result[T], error) {
	src, err := v.Open()
	if err != nil {
		return nil, err
	}
	return bulk.ValidateAll(src, v.helper.name, s, opts...)
}
