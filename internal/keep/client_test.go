package keep

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"keep-gateway/internal/domain"
)

func newTestClient(authURL, apiURL string) *client {
	return &client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		authURL:    authURL,
		apiURL:     apiURL,
	}
}

func authServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse auth form: %v", err)
		}
		if r.PostFormValue("EncryptedPasswd") == "" {
			t.Error("expected master token in auth request")
		}
		w.Write([]byte(body))
	}))
}

func changesServer(t *testing.T, responses ...syncResponse) *httptest.Server {
	t.Helper()
	call := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
			t.Error("expected OAuth authorization header")
		}
		if call >= len(responses) {
			t.Errorf("unexpected extra changes call %d", call)
			http.Error(w, "no more responses", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(responses[call])
		call++
	}))
}

func TestClient_ExchangeMasterToken(t *testing.T) {
	srv := authServer(t, "SID=x\nLSID=y\nAuth=oauth-token-123\n")
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	token, err := c.exchangeMasterToken(context.Background(), "user@example.com", "aas_et/secret", "deadbeef")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "oauth-token-123" {
		t.Errorf("expected token from Auth line, got %q", token)
	}
}

func TestClient_ExchangeMasterTokenRejected(t *testing.T) {
	srv := authServer(t, "Error=BadAuthentication\n")
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.exchangeMasterToken(context.Background(), "user@example.com", "bad", "deadbeef")
	if err == nil || !strings.Contains(err.Error(), "BadAuthentication") {
		t.Fatalf("expected rejection with upstream reason, got %v", err)
	}
}

func TestClient_AuthenticateFreshPerformsInitialSync(t *testing.T) {
	auth := authServer(t, "Auth=tok\n")
	defer auth.Close()
	api := changesServer(t, syncResponse{
		Nodes: []rawNode{
			{ID: "n1", Type: nodeTypeNote, Title: "hello"},
			{ID: "n1.item", ParentID: "n1", Type: nodeTypeListItem, Text: "world"},
		},
		ToVersion: "v1",
	})
	defer api.Close()

	c := newTestClient(auth.URL, api.URL)
	session, err := c.Authenticate(context.Background(), "user@example.com", "aas_et/secret", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	notes := session.All()
	if len(notes) != 1 {
		t.Fatalf("expected 1 note after initial sync, got %d", len(notes))
	}
	if notes[0].(domain.SimpleNote).Text != "world" {
		t.Errorf("unexpected note: %+v", notes[0])
	}
}

func TestClient_AuthenticateWithStateSkipsSync(t *testing.T) {
	auth := authServer(t, "Auth=tok\n")
	defer auth.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("changes API must not be called when restoring from state")
	}))
	defer api.Close()

	state, _ := json.Marshal(sessionState{
		Version: "v9",
		Nodes:   []rawNode{{ID: "n1", Type: nodeTypeNote, Text: "cached"}},
	})

	c := newTestClient(auth.URL, api.URL)
	session, err := c.Authenticate(context.Background(), "user@example.com", "aas_et/secret", state)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(session.All()) != 1 {
		t.Errorf("expected restored note collection, got %d notes", len(session.All()))
	}
}

func TestSession_SyncFollowsTruncatedPages(t *testing.T) {
	auth := authServer(t, "Auth=tok\n")
	defer auth.Close()
	api := changesServer(t,
		syncResponse{
			Nodes:     []rawNode{{ID: "n1", Type: nodeTypeNote}},
			ToVersion: "v1",
			Truncated: true,
		},
		syncResponse{
			Nodes:     []rawNode{{ID: "n2", Type: nodeTypeNote}},
			ToVersion: "v2",
		},
	)
	defer api.Close()

	c := newTestClient(auth.URL, api.URL)
	session, err := c.Authenticate(context.Background(), "user@example.com", "aas_et/secret", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(session.All()) != 2 {
		t.Errorf("expected nodes from both pages, got %d", len(session.All()))
	}
}

func TestSession_SyncStalledPaginationFails(t *testing.T) {
	auth := authServer(t, "Auth=tok\n")
	defer auth.Close()
	api := changesServer(t,
		syncResponse{
			Nodes:     []rawNode{{ID: "n1", Type: nodeTypeNote}},
			ToVersion: "v1",
			Truncated: true,
		},
		syncResponse{
			Nodes:     []rawNode{{ID: "n2", Type: nodeTypeNote}},
			ToVersion: "v1",
			Truncated: true,
		},
	)
	defer api.Close()

	c := newTestClient(auth.URL, api.URL)
	_, err := c.Authenticate(context.Background(), "user@example.com", "aas_et/secret", nil)
	if err == nil || !strings.Contains(err.Error(), "stalled") {
		t.Fatalf("expected stalled pagination error, got %v", err)
	}
}

func TestSession_SyncRemovesDeletedNodes(t *testing.T) {
	auth := authServer(t, "Auth=tok\n")
	defer auth.Close()
	api := changesServer(t,
		syncResponse{
			Nodes:     []rawNode{{ID: "n1", Type: nodeTypeNote}},
			ToVersion: "v1",
		},
		syncResponse{
			Nodes: []rawNode{{
				ID:         "n1",
				Type:       nodeTypeNote,
				Timestamps: nodeTimestamps{Deleted: "2024-05-01T00:00:00.000000Z"},
			}},
			ToVersion: "v2",
		},
	)
	defer api.Close()

	c := newTestClient(auth.URL, api.URL)
	session, err := c.Authenticate(context.Background(), "user@example.com", "aas_et/secret", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := session.Sync(context.Background()); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(session.All()) != 0 {
		t.Errorf("expected deleted node removed, got %d notes", len(session.All()))
	}
}

func TestSession_DumpRestoreRoundTrip(t *testing.T) {
	auth := authServer(t, "Auth=tok\n")
	defer auth.Close()
	api := changesServer(t, syncResponse{
		Nodes:     []rawNode{{ID: "n1", Type: nodeTypeNote, Title: "keep me"}},
		ToVersion: "v3",
	})
	defer api.Close()

	c := newTestClient(auth.URL, api.URL)
	session, err := c.Authenticate(context.Background(), "user@example.com", "aas_et/secret", nil)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	blob, err := session.Dump()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}

	restored, err := c.Authenticate(context.Background(), "user@example.com", "aas_et/secret", blob)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	notes := restored.All()
	if len(notes) != 1 || notes[0].Meta().Title != "keep me" {
		t.Errorf("expected restored collection, got %+v", notes)
	}
}
