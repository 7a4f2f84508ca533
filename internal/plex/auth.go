package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const (
	// PollInterval is how often a pending PIN should be re-checked.
	PollInterval = 3 * time.Second
	// LoginTimeout is how long a PIN stays worth polling.
	LoginTimeout = 5 * time.Minute

	product = "reelpick"
)

// PinAuth drives the plex.tv PIN link flow: create a PIN, send the user
// to the auth URL, poll until plex.tv attaches a token to the PIN. One
// PinAuth carries one client identifier, which plex.tv requires to be
// stable across the create and check calls.
type PinAuth struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// NewPinAuth creates a PIN flow against plex.tv with a fresh client
// identifier. baseURL overrides the plex.tv endpoint in tests; pass ""
// for the real service.
func NewPinAuth(baseURL string) *PinAuth {
	if baseURL == "" {
		baseURL = "https://plex.tv"
	}
	return &PinAuth{
		baseURL:  baseURL,
		clientID: uuid.New().String(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreatePin registers a new PIN and returns it along with the URL the
// user must visit to authorize it.
func (a *PinAuth) CreatePin(ctx context.Context) (*Pin, string, error) {
	endpoint := a.baseURL + "/api/v2/pins?strong=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	a.setHeaders(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("plex.tv returned status %d creating pin", resp.StatusCode)
	}

	var pin Pin
	if err := json.NewDecoder(resp.Body).Decode(&pin); err != nil {
		return nil, "", fmt.Errorf("decoding response: %w", err)
	}
	return &pin, a.authURL(pin.Code), nil
}

// CheckPin polls a PIN once. It returns the auth token when the user has
// authorized, or "" while the PIN is still pending.
func (a *PinAuth) CheckPin(ctx context.Context, pinID int) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v2/pins/%d", a.baseURL, pinID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	a.setHeaders(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("plex.tv returned status %d checking pin", resp.StatusCode)
	}

	var pin Pin
	if err := json.NewDecoder(resp.Body).Decode(&pin); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return pin.AuthToken, nil
}

// Username resolves the account name behind a token. Callers may treat a
// failure as "name unknown" rather than fatal.
func (a *PinAuth) Username(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/v2/user", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	a.setHeaders(req)
	req.Header.Set("X-Plex-Token", token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("plex.tv returned status %d fetching user", resp.StatusCode)
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return user.Username, nil
}

func (a *PinAuth) authURL(code string) string {
	params := url.Values{}
	params.Set("clientID", a.clientID)
	params.Set("code", code)
	params.Set("context[device][product]", product)
	return "https://app.plex.tv/auth#?" + params.Encode()
}

func (a *PinAuth) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Product", product)
	req.Header.Set("X-Plex-Client-Identifier", a.clientID)
}
