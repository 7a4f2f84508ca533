package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelpick/reelpick/internal/cache"
	"github.com/reelpick/reelpick/internal/catalog"
	"github.com/reelpick/reelpick/internal/config"
	"github.com/reelpick/reelpick/internal/database"
	"github.com/reelpick/reelpick/internal/plex"
)

// fakePlexServer serves just enough of the Plex API for the handlers: a
// movie section with one watched and two unwatched titles.
func fakePlexServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/library/sections", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"MediaContainer":{"Directory":[{"key":"1","title":"Movies","type":"movie"}]}}`))
	})
	mux.HandleFunc("/library/sections/1/all", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"MediaContainer":{"Metadata":[
			{"ratingKey":"1","title":"Seed Movie","year":1995,
			 "Genre":[{"tag":"Crime"}],"Director":[{"tag":"Mann"}]},
			{"ratingKey":"2","title":"Similar Movie","year":1997,"audienceRating":8.1,
			 "Genre":[{"tag":"Crime"}],"Director":[{"tag":"Mann"}]},
			{"ratingKey":"3","title":"Unrelated Movie","year":1970,
			 "Genre":[{"tag":"Musical"}]}
		]}}`))
	})
	mux.HandleFunc("/status/sessions/history/all", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"MediaContainer":{"Metadata":[{"ratingKey":"1"}]}}`))
	})
	return httptest.NewServer(mux)
}

func newTestApp(t *testing.T, plexURL string) (*App, *database.UserRepository) {
	t.Helper()

	db, err := database.NewDB(database.Config{Type: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := database.NewUserRepository(db)
	app := &App{
		Config: &config.Config{
			PlexURL:       plexURL,
			MovieLibrary:  "Movies",
			SeriesLibrary: "TV Shows",
			CacheTTL:      time.Minute,
		},
		Logger:  zerolog.Nop(),
		Users:   users,
		Pins:    plex.NewPinAuth(plexURL),
		Clients: cache.New[*plex.Client](time.Minute),
		Indexes: cache.New[*catalog.Index](time.Minute),
	}
	return app, users
}

func linkUser(t *testing.T, users *database.UserRepository, userID string) {
	t.Helper()
	err := users.Save(context.Background(), &database.User{
		UserID: userID, PlexToken: "tok", PlexUsername: "alice",
	})
	require.NoError(t, err)
}

func doRequest(app *App, method, target string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	NewRouter(app).ServeHTTP(rec, req)
	return rec
}

func TestRecommendHandler_RequiresLinkedAccount(t *testing.T) {
	server := fakePlexServer(t)
	defer server.Close()
	app, _ := newTestApp(t, server.URL)

	rec := doRequest(app, http.MethodGet, "/users/u1/recommendations", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecommendHandler_ReturnsRankedCards(t *testing.T) {
	server := fakePlexServer(t)
	defer server.Close()
	app, users := newTestApp(t, server.URL)
	linkUser(t, users, "u1")

	rec := doRequest(app, http.MethodGet, "/users/u1/recommendations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		BasedOnWatched  int    `json:"based_on_watched"`
		Recommendations []Card `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 1, resp.BasedOnWatched)
	require.Len(t, resp.Recommendations, 2)

	top := resp.Recommendations[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, "1. Similar Movie (1997)", top.Title)
	assert.Equal(t, "8.1/10", top.Rating)
	assert.Contains(t, top.WhyRecommended, "Shared director")
	assert.Equal(t, "2. Unrelated Movie (1970)", resp.Recommendations[1].Title)
}

func TestRecommendHandler_CountParameter(t *testing.T) {
	server := fakePlexServer(t)
	defer server.Close()
	app, users := newTestApp(t, server.URL)
	linkUser(t, users, "u1")

	rec := doRequest(app, http.MethodGet, "/users/u1/recommendations?count=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp recommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Recommendations, 1)
}

func TestRecommendGenreHandler_UnknownGenreListsAlternatives(t *testing.T) {
	server := fakePlexServer(t)
	defer server.Close()
	app, users := newTestApp(t, server.URL)
	linkUser(t, users, "u1")

	rec := doRequest(app, http.MethodGet, "/users/u1/recommendations/genre/western", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error  string   `json:"error"`
		Genres []string `json:"genres"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"crime", "musical"}, resp.Genres)
}

func TestRecommendGenreHandler_MatchesGenre(t *testing.T) {
	server := fakePlexServer(t)
	defer server.Close()
	app, users := newTestApp(t, server.URL)
	linkUser(t, users, "u1")

	rec := doRequest(app, http.MethodGet, "/users/u1/recommendations/genre/crime", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp recommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "crime", resp.Genre)
	require.Len(t, resp.Recommendations, 1)
	assert.Contains(t, resp.Recommendations[0].Title, "Similar Movie")
}

func TestRecommendHandler_PlexDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	app, users := newTestApp(t, server.URL)
	linkUser(t, users, "u1")

	rec := doRequest(app, http.MethodGet, "/users/u1/recommendations", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to connect to Plex")
}

func TestRecommendHandler_ReusesCachedIndex(t *testing.T) {
	builds := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/library/sections", func(w http.ResponseWriter, r *http.Request) {
		builds++
		w.Write([]byte(`{"MediaContainer":{"Directory":[{"key":"1","title":"Movies","type":"movie"}]}}`))
	})
	mux.HandleFunc("/library/sections/1/all", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"MediaContainer":{"Metadata":[
			{"ratingKey":"2","title":"Only Movie","audienceRating":7.5}
		]}}`))
	})
	mux.HandleFunc("/status/sessions/history/all", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"MediaContainer":{"Metadata":[]}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	app, users := newTestApp(t, server.URL)
	linkUser(t, users, "u1")

	require.Equal(t, http.StatusOK, doRequest(app, http.MethodGet, "/users/u1/recommendations", "").Code)
	require.Equal(t, http.StatusOK, doRequest(app, http.MethodGet, "/users/u1/recommendations", "").Code)

	assert.Equal(t, 1, builds, "second request must hit the cached index")
}

func TestClaimPinHandler_PendingThenLinked(t *testing.T) {
	claimed := false
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/pins/17", func(w http.ResponseWriter, r *http.Request) {
		if claimed {
			w.Write([]byte(`{"id":17,"code":"abcd","authToken":"tok-xyz"}`))
			return
		}
		w.Write([]byte(`{"id":17,"code":"abcd"}`))
	})
	mux.HandleFunc("/api/v2/user", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"username":"alice"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	app, users := newTestApp(t, server.URL)

	rec := doRequest(app, http.MethodPost, "/auth/pin/17/claim", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	claimed = true
	rec = doRequest(app, http.MethodPost, "/auth/pin/17/claim", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alice"`)

	user, err := users.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok-xyz", user.PlexToken)
	assert.Equal(t, "alice", user.PlexUsername)
}

func TestClaimPinHandler_RequiresUserID(t *testing.T) {
	server := fakePlexServer(t)
	defer server.Close()
	app, _ := newTestApp(t, server.URL)

	rec := doRequest(app, http.MethodPost, "/auth/pin/17/claim", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnlinkHandler(t *testing.T) {
	server := fakePlexServer(t)
	defer server.Close()
	app, users := newTestApp(t, server.URL)
	linkUser(t, users, "u1")

	rec := doRequest(app, http.MethodDelete, "/auth/u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(app, http.MethodDelete, "/auth/u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	server := fakePlexServer(t)
	defer server.Close()
	app, _ := newTestApp(t, server.URL)

	rec := doRequest(app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
