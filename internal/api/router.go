package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", HealthzHandler)

	r.Post("/auth/pin", app.StartPinHandler)
	r.Post("/auth/pin/{pinID}/claim", app.ClaimPinHandler)
	r.Delete("/auth/{userID}", app.UnlinkHandler)

	r.Route("/users/{userID}/recommendations", func(r chi.Router) {
		r.Get("/", app.RecommendHandler)
		r.Get("/series", app.RecommendSeriesHandler)
		r.Get("/genre/{genre}", app.RecommendGenreHandler)
	})

	return r
}

func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
