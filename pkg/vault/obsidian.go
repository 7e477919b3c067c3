package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/bttk/pinsync/pkg/obsidian"
)

// Obsidian is a Store backed by the Obsidian Local REST API. The file open
// in Obsidian's editor is exposed as a live buffer.
type Obsidian struct {
	client *obsidian.Client
}

// NewObsidian returns a store using client.
func NewObsidian(client *obsidian.Client) *Obsidian {
	return &Obsidian{client: client}
}

func (o *Obsidian) Read(ctx context.Context, path string) (string, error) {
	content, err := o.client.Vault.Get(ctx, path)
	if obsidian.IsNotFound(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return content, err
}

func (o *Obsidian) Write(ctx context.Context, path, text string) error {
	return o.client.Vault.Create(ctx, path, text)
}

func (o *Obsidian) Touch(ctx context.Context, path string) error {
	_, err := o.client.Vault.Get(ctx, path)
	if obsidian.IsNotFound(err) {
		return o.client.Vault.Create(ctx, path, "")
	}
	return err
}

func (o *Obsidian) LiveBuffer(ctx context.Context, path string) (Buffer, error) {
	note, err := o.client.ActiveFile.GetNote(ctx)
	if obsidian.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if note.Path != path {
		return nil, nil
	}
	return &activeBuffer{client: o.client}, nil
}

// FindByProperty returns the first note whose frontmatter key equals value.
func (o *Obsidian) FindByProperty(ctx context.Context, key, value string) (string, bool, error) {
	files, err := o.client.Search.FindByFrontmatter(ctx, key, value)
	if err != nil || len(files) == 0 {
		return "", false, err
	}
	return files[0], true, nil
}

// activeBuffer edits the file open in Obsidian through the active file
// endpoints.
type activeBuffer struct {
	client *obsidian.Client
}

func (b *activeBuffer) ReplaceRange(ctx context.Context, text string, from, to Position) error {
	content, err := b.client.ActiveFile.Get(ctx)
	if err != nil {
		return err
	}
	return b.client.ActiveFile.Update(ctx, Splice(content, text, from, to))
}

func (b *activeBuffer) InsertAt(ctx context.Context, text string, pos Position) error {
	return b.ReplaceRange(ctx, text, pos, pos)
}

// ObsidianDailyNotes resolves daily notes through the Periodic Notes
// endpoints, so Obsidian's own daily note settings decide the path.
type ObsidianDailyNotes struct {
	client *obsidian.Client
}

// NewObsidianDailyNotes returns daily note lookup using client.
func NewObsidianDailyNotes(client *obsidian.Client) *ObsidianDailyNotes {
	return &ObsidianDailyNotes{client: client}
}

func (d *ObsidianDailyNotes) Resolve(ctx context.Context, day time.Time) (string, bool, error) {
	note, err := d.client.Periodic.GetNote(ctx, obsidian.PeriodDaily, day)
	if obsidian.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return note.Path, true, nil
}

func (d *ObsidianDailyNotes) Create(ctx context.Context, day time.Time) (string, error) {
	if err := d.client.Periodic.Put(ctx, obsidian.PeriodDaily, day, ""); err != nil {
		return "", err
	}
	path, ok, err := d.Resolve(ctx, day)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("daily note for %s missing after create", day.Format("2006-01-02"))
	}
	return path, nil
}

var (
	_ Store          = (*Obsidian)(nil)
	_ PropertyFinder = (*Obsidian)(nil)
	_ DailyNotes     = (*ObsidianDailyNotes)(nil)
)
