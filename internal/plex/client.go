package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reelpick/reelpick/internal/catalog"
)

// Client talks to one Plex Media Server on behalf of one user token. It
// implements catalog.Source. Clients are cheap and safe for concurrent
// use; the surrounding service caches them per user to reuse the
// underlying HTTP connections.
type Client struct {
	baseURL    string
	publicURL  string
	token      string
	httpClient *http.Client
}

// NewClient binds a client to a server and token. publicURL is the base
// used when building artwork links handed to presentation; it falls back
// to baseURL when empty.
func NewClient(baseURL, publicURL, token string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if publicURL == "" {
		publicURL = baseURL
	}
	return &Client{
		baseURL:   baseURL,
		publicURL: strings.TrimRight(publicURL, "/"),
		token:     token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Section resolves a library section name to its key.
func (c *Client) Section(ctx context.Context, name string) (string, error) {
	var resp sectionsResponse
	if err := c.get(ctx, "/library/sections", nil, &resp); err != nil {
		return "", err
	}
	for _, dir := range resp.MediaContainer.Directory {
		if dir.Title == name {
			return dir.Key, nil
		}
	}
	return "", fmt.Errorf("library section %q not found", name)
}

// Items lists every item in a section as raw catalog entries. Artwork
// links are fully resolved here so downstream layers never need the
// token.
func (c *Client) Items(ctx context.Context, sectionKey string) ([]catalog.Item, error) {
	var resp metadataResponse
	path := fmt.Sprintf("/library/sections/%s/all", sectionKey)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	items := make([]catalog.Item, 0, len(resp.MediaContainer.Metadata))
	for _, md := range resp.MediaContainer.Metadata {
		items = append(items, catalog.Item{
			RatingKey:      md.RatingKey,
			Title:          md.Title,
			Year:           md.Year,
			Genres:         tagValues(md.Genre),
			Directors:      tagValues(md.Director),
			Cast:           tagValues(md.Role),
			Rating:         md.Rating,
			AudienceRating: md.AudienceRating,
			Summary:        md.Summary,
			Thumb:          c.artworkURL(md.Thumb),
		})
	}
	return items, nil
}

// History lists the watch history for a section, newest first. Episode
// rows carry the owning series key in ParentKey.
func (c *Client) History(ctx context.Context, sectionKey string) ([]catalog.HistoryEntry, error) {
	var resp metadataResponse
	query := url.Values{}
	query.Set("librarySectionID", sectionKey)
	query.Set("sort", "viewedAt:desc")
	if err := c.get(ctx, "/status/sessions/history/all", query, &resp); err != nil {
		return nil, err
	}

	entries := make([]catalog.HistoryEntry, 0, len(resp.MediaContainer.Metadata))
	for _, md := range resp.MediaContainer.Metadata {
		entries = append(entries, catalog.HistoryEntry{
			RatingKey: md.RatingKey,
			ParentKey: md.GrandparentRatingKey,
		})
	}
	return entries, nil
}

func (c *Client) artworkURL(thumb string) string {
	if thumb == "" {
		return ""
	}
	return fmt.Sprintf("%s%s?X-Plex-Token=%s", c.publicURL, thumb, url.QueryEscape(c.token))
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("plex server returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
