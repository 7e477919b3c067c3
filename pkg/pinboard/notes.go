package pinboard

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// NotesService handles the notes/* endpoints.
type NotesService struct {
	req  Request
	exec Executor
}

func newNotesService(base Request, exec Executor) *NotesService {
	return &NotesService{req: base.Clone([]string{"notes"}), exec: exec}
}

// List returns metadata for all notes. Text is not included; use Get or
// NotePostsService.List for that.
func (s *NotesService) List(ctx context.Context) ([]Note, error) {
	var resp struct {
		Notes []noteJSON `json:"notes"`
	}
	if err := s.exec.Execute(ctx, s.req.Clone([]string{"list"}), &resp); err != nil {
		return nil, err
	}
	notes := make([]Note, 0, len(resp.Notes))
	for _, raw := range resp.Notes {
		n, err := noteFromResponse(raw)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// Get returns a single note including its text.
func (s *NotesService) Get(ctx context.Context, id string) (*Note, error) {
	if id == "" {
		return nil, ErrEmptyNoteID
	}
	var raw noteJSON
	if err := s.exec.Execute(ctx, s.req.Clone([]string{id}), &raw); err != nil {
		return nil, err
	}
	n, err := noteFromResponse(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// NotePostsService joins notes with their bookmarks. Pinboard stores a note
// and a bookmark pointing at the note's public URL as separate objects, so
// every join costs a notes request and a posts/get request.
type NotePostsService struct {
	notes    *NotesService
	posts    *PostsService
	notesReq Request
}

// Get returns the note with the given id joined with its bookmark.
func (s *NotePostsService) Get(ctx context.Context, id string) (*NotePost, error) {
	note, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	noteURL := s.NoteURL(note.ID)
	coll, err := s.posts.Get(ctx, GetOptions{URL: noteURL, urlLiteral: true})
	if err != nil {
		return nil, err
	}
	if len(coll.Posts) != 1 {
		return nil, &JoinError{NoteID: note.ID, URL: noteURL, Found: len(coll.Posts)}
	}
	return &NotePost{Note: *note, Post: coll.Posts[0]}, nil
}

// List joins every note with its bookmark. Joins run in parallel and the
// first failing join fails the whole call.
func (s *NotePostsService) List(ctx context.Context) ([]NotePost, error) {
	metas, err := s.notes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]NotePost, len(metas))
	g, gctx := errgroup.WithContext(ctx)
	for i, meta := range metas {
		g.Go(func() error {
			np, err := s.Get(gctx, meta.ID)
			if err != nil {
				return err
			}
			out[i] = *np
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// NoteURL is the public URL Pinboard bookmarks for a note.
func (s *NotePostsService) NoteURL(id string) string {
	return s.notesReq.Clone([]string{id}).FullURL()
}
