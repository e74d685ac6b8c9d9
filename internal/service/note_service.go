package service

import (
	"context"
	"log"
	"sort"
	"time"

	"keep-gateway/internal/domain"
)

type ListOptions struct {
	Sync            bool
	IncludeTrashed  bool
	IncludeArchived bool
}

// NoteService is the read surface: it composes the session manager, the sync
// service, and normalization into list responses.
type NoteService struct {
	sessions *SessionManager
	syncer   *SyncService
}

func NewNoteService(sessions *SessionManager, syncer *SyncService) *NoteService {
	return &NoteService{
		sessions: sessions,
		syncer:   syncer,
	}
}

// List returns the normalized note collection. With opts.Sync set, a remote
// sync runs first and a sync failure aborts the call; stale data is never
// served in place of a requested sync.
func (s *NoteService) List(ctx context.Context, opts ListOptions) ([]domain.WireNote, error) {
	if opts.Sync {
		if err := s.syncer.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	session, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}

	notes := Normalize(session.All(), opts.IncludeTrashed, opts.IncludeArchived)
	log.Printf("returning %d notes", len(notes))
	return notes, nil
}

// ForceSync refreshes unconditionally without reading any notes. It backs
// the frontend's manual refresh action.
func (s *NoteService) ForceSync(ctx context.Context) error {
	return s.syncer.Refresh(ctx)
}

// Normalize converts a note collection into the wire shape: trashed and
// archived notes are filtered out unless asked for (the flags apply
// independently), each survivor maps to exactly one WireNote of the matching
// variant, and the result is ordered by updateTime descending. Timestamps
// render as fixed-width RFC3339 UTC, so lexicographic string order is
// chronological order; absent timestamps render as "" and sort last.
func Normalize(notes []domain.NoteLike, includeTrashed, includeArchived bool) []domain.WireNote {
	out := make([]domain.WireNote, 0, len(notes))
	for _, n := range notes {
		meta := n.Meta()
		if meta.Trashed && !includeTrashed {
			continue
		}
		if meta.Archived && !includeArchived {
			continue
		}
		out = append(out, toWire(n))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdateTime > out[j].UpdateTime
	})
	return out
}

func toWire(n domain.NoteLike) domain.WireNote {
	meta := n.Meta()
	wire := domain.WireNote{
		Name:       "notes/" + meta.ID,
		Title:      meta.Title,
		CreateTime: formatTime(meta.CreatedAt),
		UpdateTime: formatTime(meta.UpdatedAt),
		Trashed:    meta.Trashed,
	}

	switch note := n.(type) {
	case domain.SimpleNote:
		wire.Body.Text = &domain.WireText{Text: note.Text}
	case domain.ListNote:
		items := make([]domain.WireListItem, 0, len(note.Items))
		for _, item := range note.Items {
			items = append(items, domain.WireListItem{
				Text:    domain.WireText{Text: item.Text},
				Checked: item.Checked,
			})
		}
		wire.Body.List = &domain.WireList{ListItems: items}
	}
	return wire
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
