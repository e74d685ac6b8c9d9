package keep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"keep-gateway/internal/domain"
)

type session struct {
	client    *client
	email     string
	deviceID  string
	authToken string
	sessionID string

	mu      sync.RWMutex
	nodes   map[string]rawNode
	version string
}

type syncRequest struct {
	ClientTimestamp string        `json:"clientTimestamp"`
	RequestHeader   requestHeader `json:"requestHeader"`
	TargetVersion   string        `json:"targetVersion,omitempty"`
	Nodes           []rawNode     `json:"nodes"`
}

type requestHeader struct {
	ClientSessionID string            `json:"clientSessionId"`
	ClientPlatform  string            `json:"clientPlatform"`
	ClientVersion   map[string]string `json:"clientVersion"`
	Capabilities    []capability      `json:"capabilities"`
}

type capability struct {
	Type string `json:"type"`
}

type syncResponse struct {
	Nodes     []rawNode `json:"nodes"`
	ToVersion string    `json:"toVersion"`
	Truncated bool      `json:"truncated"`
}

// sessionState is the opaque blob handed to Dump callers. Its layout is owned
// by this package; nothing outside should interpret it.
type sessionState struct {
	Version string    `json:"keep_version"`
	Nodes   []rawNode `json:"nodes"`
}

func (s *session) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The changes API pages large result sets; keep pulling until the
	// server reports a complete view.
	for {
		resp, err := s.fetchChanges(ctx)
		if err != nil {
			return err
		}
		for _, node := range resp.Nodes {
			if node.Timestamps.isDeleted() {
				delete(s.nodes, node.ID)
				continue
			}
			s.nodes[node.ID] = node
		}
		// A truncated page must advance the version cursor; a server that
		// repeats the same cursor would otherwise loop forever while the
		// write lock blocks every reader.
		if resp.Truncated && resp.ToVersion == s.version {
			return fmt.Errorf("changes pagination stalled at version %q", s.version)
		}
		s.version = resp.ToVersion
		if !resp.Truncated {
			return nil
		}
	}
}

func (s *session) fetchChanges(ctx context.Context) (*syncResponse, error) {
	reqBody := syncRequest{
		ClientTimestamp: time.Now().UTC().Format(time.RFC3339),
		RequestHeader: requestHeader{
			ClientSessionID: s.sessionID,
			ClientPlatform:  "ANDROID",
			ClientVersion:   map[string]string{"major": "9", "minor": "9", "build": "9", "revision": "9"},
			Capabilities: []capability{
				{Type: "NC"}, {Type: "PI"}, {Type: "LB"}, {Type: "AN"},
				{Type: "SH"}, {Type: "DR"}, {Type: "TR"}, {Type: "IN"},
			},
		},
		TargetVersion: s.version,
		Nodes:         []rawNode{},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "OAuth "+s.authToken)

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("changes request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read changes response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("changes request failed: status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed syncResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode changes response: %w", err)
	}
	return &parsed, nil
}

func (s *session) Dump() (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := sessionState{
		Version: s.version,
		Nodes:   make([]rawNode, 0, len(s.nodes)),
	}
	for _, node := range s.nodes {
		state.Nodes = append(state.Nodes, node)
	}
	sort.Slice(state.Nodes, func(i, j int) bool { return state.Nodes[i].ID < state.Nodes[j].ID })

	return json.Marshal(state)
}

func (s *session) restore(blob json.RawMessage) error {
	var state sessionState
	if err := json.Unmarshal(blob, &state); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = state.Version
	s.nodes = make(map[string]rawNode, len(state.Nodes))
	for _, node := range state.Nodes {
		s.nodes[node.ID] = node
	}
	return nil
}

func (s *session) All() []domain.NoteLike {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return assembleNotes(s.nodes)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
