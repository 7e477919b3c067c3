package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/bttk/pinsync/internal/momentfmt"
	"github.com/spf13/afero"
)

// FS is a Store over a directory tree. It has no editor, so LiveBuffer
// always returns nil.
type FS struct {
	fs afero.Fs
}

// NewFS returns a store over fsys.
func NewFS(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// NewDirFS returns a store rooted at dir on the local disk.
func NewDirFS(dir string) *FS {
	return NewFS(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

func (s *FS) Read(_ context.Context, p string) (string, error) {
	b, err := afero.ReadFile(s.fs, clean(p))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *FS) Write(_ context.Context, p, text string) error {
	p = clean(p)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, p, []byte(text), 0o644)
}

func (s *FS) Touch(ctx context.Context, p string) error {
	ok, err := afero.Exists(s.fs, clean(p))
	if err != nil || ok {
		return err
	}
	return s.Write(ctx, p, "")
}

func (s *FS) LiveBuffer(context.Context, string) (Buffer, error) {
	return nil, nil
}

// FSDailyNotes stores daily notes as Folder/<Format>.md where Format is a
// moment-style date layout.
type FSDailyNotes struct {
	Store  *FS
	Folder string
	Format string
}

func (d *FSDailyNotes) path(day time.Time) string {
	format := d.Format
	if format == "" {
		format = "YYYY-MM-DD"
	}
	return clean(path.Join(d.Folder, momentfmt.Format(day, format)+".md"))
}

func (d *FSDailyNotes) Resolve(_ context.Context, day time.Time) (string, bool, error) {
	p := d.path(day)
	ok, err := afero.Exists(d.Store.fs, p)
	if err != nil {
		return "", false, err
	}
	return p, ok, nil
}

func (d *FSDailyNotes) Create(ctx context.Context, day time.Time) (string, error) {
	p := d.path(day)
	if err := d.Store.Touch(ctx, p); err != nil {
		return "", err
	}
	return p, nil
}

func clean(p string) string {
	p = path.Clean("/" + p)
	if p == "/" {
		return p
	}
	return p[1:]
}

var _ Store = (*FS)(nil)
var _ DailyNotes = (*FSDailyNotes)(nil)
