package service

import (
	"context"
	"log"
	"sync"

	"keep-gateway/internal/snapshot"
	"keep-gateway/internal/websocket"
)

// SyncService drives the "pull latest from remote, then persist snapshot"
// step. It holds no state of its own beyond the lock that keeps refreshes
// from interleaving.
type SyncService struct {
	sessions *SessionManager
	store    *snapshot.Store
	hub      *websocket.Hub

	mu sync.Mutex
}

func NewSyncService(sessions *SessionManager, store *snapshot.Store, hub *websocket.Hub) *SyncService {
	return &SyncService{
		sessions: sessions,
		store:    store,
		hub:      hub,
	}
}

// Refresh syncs the session against the remote service and persists the
// updated snapshot. At most one refresh runs at a time; concurrent calls
// queue behind the in-flight one. On failure the previously persisted
// snapshot is left untouched.
func (s *SyncService) Refresh(ctx context.Context) error {
	session, err := s.sessions.Get(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("syncing with remote note service")
	if err := session.Sync(ctx); err != nil {
		return &SyncError{Err: err}
	}

	blob, err := session.Dump()
	if err != nil {
		return &SyncError{Err: err}
	}
	if err := s.store.Save(blob); err != nil {
		return &SyncError{Err: err}
	}
	log.Printf("snapshot saved to %s", s.store.Path())

	if s.hub != nil {
		s.hub.Broadcast(websocket.Event{Type: websocket.EventNotesUpdated})
	}
	return nil
}
