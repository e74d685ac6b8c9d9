package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"keep-gateway/internal/keep"
	"keep-gateway/internal/snapshot"

	"github.com/go-playground/validator/v10"
)

// Credentials for the remote note service. The master token is the
// long-lived aas_et/... secret; see README for how to obtain one.
type Credentials struct {
	Email       string `validate:"required,email"`
	MasterToken string `validate:"required"`
}

// SessionManager owns the process's single authenticated session. It
// authenticates lazily on first use and caches the handle for the rest of
// the process lifetime; credential rotation requires a restart.
type SessionManager struct {
	client   keep.Client
	store    *snapshot.Store
	creds    Credentials
	validate *validator.Validate

	mu      sync.Mutex
	session keep.Session
}

func NewSessionManager(client keep.Client, store *snapshot.Store, creds Credentials) *SessionManager {
	return &SessionManager{
		client:   client,
		store:    store,
		creds:    creds,
		validate: validator.New(),
	}
}

// Get returns the session, authenticating on first call. The lock serializes
// concurrent first calls so only one authentication is ever in flight;
// callers arriving during it wait for its result. A failed attempt leaves
// the handle unset, so the next call retries.
func (m *SessionManager) Get(ctx context.Context) (keep.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return m.session, nil
	}

	if err := m.validate.Struct(m.creds); err != nil {
		return nil, &ConfigError{Reason: "set KEEP_EMAIL and KEEP_MASTER_TOKEN"}
	}

	state, err := m.store.Load()
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		log.Printf("no snapshot at %s, will perform a full sync", m.store.Path())
		state = nil
	case err != nil:
		// A snapshot that exists but cannot be read halts startup
		// instead of silently re-syncing from scratch.
		return nil, err
	default:
		log.Printf("restoring session state from %s", m.store.Path())
	}

	session, err := m.client.Authenticate(ctx, m.creds.Email, m.creds.MasterToken, state)
	if err != nil {
		return nil, &AuthError{Err: err}
	}

	log.Printf("authenticated to remote note service as %s", m.creds.Email)
	m.session = session
	return session, nil
}
