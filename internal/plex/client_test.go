package plex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/library/sections", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"MediaContainer":{"Directory":[
			{"key":"1","title":"Movies","type":"movie"},
			{"key":"2","title":"TV Shows","type":"show"}
		]}}`))
	})

	mux.HandleFunc("/library/sections/1/all", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"MediaContainer":{"Metadata":[
			{"ratingKey":"100","title":"Heat","year":1995,"rating":8.7,"audienceRating":9.3,
			 "summary":"A heist goes wrong.","thumb":"/library/metadata/100/thumb/1",
			 "Genre":[{"tag":"Crime"},{"tag":"Drama"}],
			 "Director":[{"tag":"Michael Mann"}],
			 "Role":[{"tag":"Al Pacino"},{"tag":"Robert De Niro"}]},
			{"ratingKey":"101","title":"Unknown Year"}
		]}}`))
	})

	mux.HandleFunc("/status/sessions/history/all", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("librarySectionID"))
		w.Write([]byte(`{"MediaContainer":{"Metadata":[
			{"ratingKey":"100"},
			{"ratingKey":"999","grandparentRatingKey":"200"}
		]}}`))
	})

	return httptest.NewServer(mux)
}

func TestClient_Section(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewClient(server.URL, "", "tok")

	key, err := client.Section(context.Background(), "Movies")
	require.NoError(t, err)
	assert.Equal(t, "1", key)

	_, err = client.Section(context.Background(), "Music")
	assert.ErrorContains(t, err, `"Music" not found`)
}

func TestClient_Items(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewClient(server.URL, "https://plex.example.com", "tok")

	items, err := client.Items(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	heat := items[0]
	assert.Equal(t, "100", heat.RatingKey)
	assert.Equal(t, "Heat", heat.Title)
	assert.Equal(t, 1995, heat.Year)
	assert.Equal(t, []string{"Crime", "Drama"}, heat.Genres)
	assert.Equal(t, []string{"Michael Mann"}, heat.Directors)
	assert.Equal(t, []string{"Al Pacino", "Robert De Niro"}, heat.Cast)
	assert.Equal(t, 8.7, heat.Rating)
	assert.Equal(t, 9.3, heat.AudienceRating)
	assert.Equal(t, "https://plex.example.com/library/metadata/100/thumb/1?X-Plex-Token=tok", heat.Thumb)

	assert.Zero(t, items[1].Year)
	assert.Empty(t, items[1].Thumb, "no artwork link without a thumb path")
}

func TestClient_History(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewClient(server.URL, "", "tok")

	entries, err := client.History(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "100", entries[0].RatingKey)
	assert.Empty(t, entries[0].ParentKey)
	assert.Equal(t, "200", entries[1].ParentKey)
}

func TestClient_BadToken(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewClient(server.URL, "", "wrong")

	_, err := client.Section(context.Background(), "Movies")
	assert.ErrorContains(t, err, "status 401")
}

func TestPinAuth_CreateAndCheck(t *testing.T) {
	var clientID string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/pins", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		clientID = r.Header.Get("X-Plex-Client-Identifier")
		require.NotEmpty(t, clientID)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":17,"code":"abcd"}`))
	})
	claimed := false
	mux.HandleFunc("/api/v2/pins/17", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, clientID, r.Header.Get("X-Plex-Client-Identifier"),
			"client identifier must be stable across create and check")
		if claimed {
			w.Write([]byte(`{"id":17,"code":"abcd","authToken":"tok-xyz"}`))
			return
		}
		w.Write([]byte(`{"id":17,"code":"abcd","authToken":null}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	auth := NewPinAuth(server.URL)

	pin, authURL, err := auth.CreatePin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 17, pin.ID)
	assert.Equal(t, "abcd", pin.Code)
	assert.Contains(t, authURL, "app.plex.tv/auth")
	assert.Contains(t, authURL, "code=abcd")

	token, err := auth.CheckPin(context.Background(), pin.ID)
	require.NoError(t, err)
	assert.Empty(t, token, "pending pin yields no token")

	claimed = true
	token, err = auth.CheckPin(context.Background(), pin.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-xyz", token)
}

func TestPinAuth_Username(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "tok-xyz" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"username":"alice"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	auth := NewPinAuth(server.URL)

	username, err := auth.Username(context.Background(), "tok-xyz")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	_, err = auth.Username(context.Background(), "bad")
	assert.ErrorContains(t, err, "status 401")
}
