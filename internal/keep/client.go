package keep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultAuthURL = "https://android.clients.google.com/auth"
	defaultAPIURL  = "https://www.googleapis.com/notes/v1/changes"

	oauthScopes = "oauth2:https://www.googleapis.com/auth/memento https://www.googleapis.com/auth/reminders"
)

type client struct {
	httpClient *http.Client
	authURL    string
	apiURL     string
}

func NewClient() Client {
	return &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		authURL:    defaultAuthURL,
		apiURL:     defaultAPIURL,
	}
}

func (c *client) Authenticate(ctx context.Context, email, masterToken string, state json.RawMessage) (Session, error) {
	// The auth endpoint wants an Android device id; any stable hex string
	// works, so mint one per session.
	deviceID := strings.ReplaceAll(uuid.New().String(), "-", "")

	authToken, err := c.exchangeMasterToken(ctx, email, masterToken, deviceID)
	if err != nil {
		return nil, err
	}

	s := &session{
		client:    c,
		email:     email,
		deviceID:  deviceID,
		authToken: authToken,
		sessionID: fmt.Sprintf("s--%d", time.Now().UnixMilli()),
		nodes:     make(map[string]rawNode),
	}

	if len(state) > 0 {
		if err := s.restore(state); err != nil {
			return nil, fmt.Errorf("restore session state: %w", err)
		}
		return s, nil
	}

	if err := s.Sync(ctx); err != nil {
		return nil, fmt.Errorf("initial sync: %w", err)
	}
	return s, nil
}

// exchangeMasterToken trades an aas_et/... master token for an OAuth access
// token scoped to the Keep service.
func (c *client) exchangeMasterToken(ctx context.Context, email, masterToken, deviceID string) (string, error) {
	form := url.Values{
		"accountType":     {"HOSTED_OR_GOOGLE"},
		"Email":           {email},
		"has_permission":  {"1"},
		"EncryptedPasswd": {masterToken},
		"service":         {oauthScopes},
		"source":          {"android"},
		"androidId":       {deviceID},
		"app":             {"com.google.android.keep"},
		"device_country":  {"us"},
		"operatorCountry": {"us"},
		"lang":            {"en"},
		"sdk_version":     {"17"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read auth response: %w", err)
	}

	fields := parseAuthResponse(string(body))
	if token, ok := fields["Auth"]; ok {
		return token, nil
	}
	if reason, ok := fields["Error"]; ok {
		return "", fmt.Errorf("auth rejected: %s", reason)
	}
	return "", fmt.Errorf("auth failed: unexpected response (status %d)", resp.StatusCode)
}

// parseAuthResponse splits the endpoint's key=value line format.
func parseAuthResponse(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok {
			fields[key] = value
		}
	}
	return fields
}
