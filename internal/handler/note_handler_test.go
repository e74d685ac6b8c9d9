package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"keep-gateway/internal/domain"
	"keep-gateway/internal/keep"
	"keep-gateway/internal/service"
	"keep-gateway/internal/snapshot"

	"github.com/gorilla/mux"
)

type stubSession struct {
	notes     []domain.NoteLike
	syncErr   error
	syncCalls int
}

func (s *stubSession) Sync(ctx context.Context) error {
	s.syncCalls++
	return s.syncErr
}

func (s *stubSession) Dump() (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (s *stubSession) All() []domain.NoteLike { return s.notes }

type stubClient struct {
	session *stubSession
}

func (c *stubClient) Authenticate(ctx context.Context, email, masterToken string, state json.RawMessage) (keep.Session, error) {
	return c.session, nil
}

func newTestRouter(t *testing.T, client keep.Client, creds service.Credentials) *mux.Router {
	t.Helper()
	store := snapshot.NewStore(filepath.Join(t.TempDir(), "keep_state.json"))
	sessions := service.NewSessionManager(client, store, creds)
	notes := service.NewNoteService(sessions, service.NewSyncService(sessions, store, nil))
	h := NewNoteHandler(notes)

	r := mux.NewRouter()
	r.HandleFunc("/api/notes", h.List).Methods("GET")
	r.HandleFunc("/api/notes/sync", h.Sync).Methods("POST")
	return r
}

func testCreds() service.Credentials {
	return service.Credentials{Email: "user@example.com", MasterToken: "aas_et/secret"}
}

func TestNoteHandler_List(t *testing.T) {
	session := &stubSession{notes: []domain.NoteLike{
		domain.SimpleNote{
			NoteMeta: domain.NoteMeta{
				ID:        "1",
				Title:     "A",
				UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			},
			Text: "x",
		},
		domain.SimpleNote{
			NoteMeta: domain.NoteMeta{ID: "2", Title: "B", Trashed: true},
			Text:     "y",
		},
	}}
	router := newTestRouter(t, &stubClient{session: session}, testCreds())

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Notes []domain.WireNote `json:"notes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Notes) != 1 {
		t.Fatalf("expected trashed note filtered, got %d notes", len(body.Notes))
	}
	if body.Notes[0].Name != "notes/1" {
		t.Errorf("unexpected note: %+v", body.Notes[0])
	}
}

func TestNoteHandler_ListIncludeTrashed(t *testing.T) {
	session := &stubSession{notes: []domain.NoteLike{
		domain.SimpleNote{NoteMeta: domain.NoteMeta{ID: "2", Trashed: true}, Text: "y"},
	}}
	router := newTestRouter(t, &stubClient{session: session}, testCreds())

	req := httptest.NewRequest(http.MethodGet, "/api/notes?trashed=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body struct {
		Notes []domain.WireNote `json:"notes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Notes) != 1 || !body.Notes[0].Trashed {
		t.Errorf("expected trashed note included, got %+v", body.Notes)
	}
}

func TestNoteHandler_ListSyncParam(t *testing.T) {
	session := &stubSession{}
	router := newTestRouter(t, &stubClient{session: session}, testCreds())

	req := httptest.NewRequest(http.MethodGet, "/api/notes?sync=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if session.syncCalls != 1 {
		t.Errorf("expected sync before read, got %d calls", session.syncCalls)
	}
}

func TestNoteHandler_ListMissingCredentials(t *testing.T) {
	router := newTestRouter(t, &stubClient{session: &stubSession{}}, service.Credentials{})

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] == "" {
		t.Errorf("expected error message, got %v", body)
	}
}

func TestNoteHandler_Sync(t *testing.T) {
	session := &stubSession{}
	router := newTestRouter(t, &stubClient{session: session}, testCreds())

	req := httptest.NewRequest(http.MethodPost, "/api/notes/sync", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "synced" {
		t.Errorf("expected synced status, got %v", body)
	}
	if session.syncCalls != 1 {
		t.Errorf("expected 1 sync, got %d", session.syncCalls)
	}
}
