package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/reelpick/reelpick/internal/cache"
	"github.com/reelpick/reelpick/internal/catalog"
	"github.com/reelpick/reelpick/internal/config"
	"github.com/reelpick/reelpick/internal/database"
	"github.com/reelpick/reelpick/internal/plex"
	"github.com/reelpick/reelpick/internal/recommender"
)

// defaultCardCount is how many cards a recommendation endpoint returns
// unless the request asks for fewer or more.
const defaultCardCount = 5

// maxGenreHint bounds the genre list returned with an empty genre
// result.
const maxGenreHint = 20

// App carries the wired collaborators the handlers close over. Indexes
// and clients are reused across requests through the TTL caches; a stale
// index is acceptable by contract, a missing one triggers a rebuild.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Users   *database.UserRepository
	Pins    *plex.PinAuth
	Clients *cache.TTL[*plex.Client]
	Indexes *cache.TTL[*catalog.Index]
}

func (app *App) StartPinHandler(w http.ResponseWriter, r *http.Request) {
	pin, authURL, err := app.Pins.CreatePin(r.Context())
	if err != nil {
		app.Logger.Error().Err(err).Msg("failed to start pin login")
		writeError(w, http.StatusBadGateway, "failed to start Plex login")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"pin_id":   pin.ID,
		"code":     pin.Code,
		"auth_url": authURL,
	})
}

func (app *App) ClaimPinHandler(w http.ResponseWriter, r *http.Request) {
	pinID, err := strconv.Atoi(chi.URLParam(r, "pinID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pin id")
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	token, err := app.Pins.CheckPin(r.Context(), pinID)
	if err != nil {
		app.Logger.Error().Err(err).Int("pin_id", pinID).Msg("failed to check pin")
		writeError(w, http.StatusBadGateway, "failed to check Plex login")
		return
	}
	if token == "" {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{"status": "pending"})
		return
	}

	// Username is cosmetic; a failed lookup must not lose the token.
	username, err := app.Pins.Username(r.Context(), token)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("could not resolve plex username")
		username = ""
	}

	user := &database.User{UserID: req.UserID, PlexToken: token, PlexUsername: username}
	if err := app.Users.Save(r.Context(), user); err != nil {
		app.Logger.Error().Err(err).Str("user_id", req.UserID).Msg("failed to save account link")
		writeError(w, http.StatusInternalServerError, "failed to save account link")
		return
	}
	app.invalidateUser(req.UserID)

	app.Logger.Info().Str("user_id", req.UserID).Str("username", username).Msg("account linked")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "linked",
		"username": username,
	})
}

func (app *App) UnlinkHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	deleted, err := app.Users.Delete(r.Context(), userID)
	if err != nil {
		app.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to unlink account")
		writeError(w, http.StatusInternalServerError, "failed to unlink account")
		return
	}
	app.invalidateUser(userID)

	if !deleted {
		writeError(w, http.StatusNotFound, "no linked account found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "unlinked"})
}

func (app *App) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ix, ok := app.loadIndex(w, r, userID, app.Config.MovieLibrary, false)
	if !ok {
		return
	}

	recs := recommender.New(ix).FromHistory(cardCount(r), recommender.DefaultSeedCount)
	if len(recs) == 0 {
		writeError(w, http.StatusNotFound, "no recommendations found; the library may be empty")
		return
	}

	seedCount := ix.WatchedCount()
	if seedCount > recommender.DefaultSeedCount {
		seedCount = recommender.DefaultSeedCount
	}
	writeJSON(w, http.StatusOK, recommendationResponse{
		BasedOnWatched:  seedCount,
		Recommendations: buildCards(recs),
	})
}

func (app *App) RecommendSeriesHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ix, ok := app.loadIndex(w, r, userID, app.Config.SeriesLibrary, true)
	if !ok {
		return
	}

	recs := recommender.New(ix).FromHistory(cardCount(r), recommender.DefaultSeedCount)
	if len(recs) == 0 {
		writeError(w, http.StatusNotFound, "no recommendations found; the library may be empty")
		return
	}

	seedCount := ix.WatchedCount()
	if seedCount > recommender.DefaultSeedCount {
		seedCount = recommender.DefaultSeedCount
	}
	writeJSON(w, http.StatusOK, recommendationResponse{
		BasedOnWatched:  seedCount,
		Recommendations: buildCards(recs),
	})
}

func (app *App) RecommendGenreHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	genre := chi.URLParam(r, "genre")

	ix, ok := app.loadIndex(w, r, userID, app.Config.MovieLibrary, false)
	if !ok {
		return
	}

	recs := recommender.New(ix).ByGenre(genre, cardCount(r))
	if len(recs) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":  "no items found for genre " + genre,
			"genres": genreHint(ix),
		})
		return
	}

	writeJSON(w, http.StatusOK, recommendationResponse{
		Genre:           genre,
		Recommendations: buildCards(recs),
	})
}

// loadIndex resolves the user's link, reuses or builds the per-user
// client and index, and writes the error response itself when anything
// goes wrong.
func (app *App) loadIndex(w http.ResponseWriter, r *http.Request, userID, library string, series bool) (*catalog.Index, bool) {
	user, err := app.Users.Get(r.Context(), userID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "no linked Plex account; start a PIN login first")
		return nil, false
	}
	if err != nil {
		app.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to load account link")
		writeError(w, http.StatusInternalServerError, "failed to load account link")
		return nil, false
	}

	indexKey := userID + ":" + library
	if ix, ok := app.Indexes.Get(indexKey); ok {
		return ix, true
	}

	client, ok := app.Clients.Get(userID)
	if !ok {
		client = plex.NewClient(app.Config.PlexURL, app.Config.PlexPublicURL, user.PlexToken)
		app.Clients.Set(userID, client)
	}

	build := catalog.BuildMovieIndex
	if series {
		build = catalog.BuildSeriesIndex
	}
	ix, err := build(r.Context(), client, library)
	if err != nil {
		app.Logger.Error().Err(err).Str("user_id", userID).Str("library", library).Msg("catalog fetch failed")
		writeError(w, http.StatusBadGateway, "failed to connect to Plex: "+err.Error())
		return nil, false
	}

	app.Indexes.Set(indexKey, ix)
	return ix, true
}

func (app *App) invalidateUser(userID string) {
	app.Clients.Invalidate(userID)
	app.Indexes.Invalidate(userID + ":" + app.Config.MovieLibrary)
	app.Indexes.Invalidate(userID + ":" + app.Config.SeriesLibrary)
}

type recommendationResponse struct {
	Genre           string `json:"genre,omitempty"`
	BasedOnWatched  int    `json:"based_on_watched,omitempty"`
	Recommendations []Card `json:"recommendations"`
}

func cardCount(r *http.Request) int {
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count <= 0 {
		return defaultCardCount
	}
	return count
}

func genreHint(ix *catalog.Index) []string {
	genres := append([]string(nil), ix.Genres()...)
	sort.Strings(genres)
	if len(genres) > maxGenreHint {
		genres = genres[:maxGenreHint]
	}
	return genres
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
