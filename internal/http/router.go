package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/themed-dev/themed/internal/http/handlers"
)

// NewRouter builds the HTTP routing tree for the control API.
func NewRouter(api *handlers.API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON)
	r.Use(RequestLogger(api))

	r.Get("/healthz", api.Health)
	// The event stream is long-lived and must not sit under the timeout.
	r.Get("/api/events", api.Events)

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(20 * time.Second))
		g.Route("/api", func(apiRouter chi.Router) {
			apiRouter.Get("/status", api.Status)

			apiRouter.Get("/themes", api.ListThemes)
			apiRouter.Get("/themes/{id}", func(w http.ResponseWriter, r *http.Request) {
				api.GetTheme(w, r, chi.URLParam(r, "id"))
			})
			apiRouter.Post("/themes/{id}/apply", func(w http.ResponseWriter, r *http.Request) {
				api.ApplyTheme(w, r, chi.URLParam(r, "id"))
			})

			apiRouter.Get("/settings", api.GetSettings)
			apiRouter.Put("/settings", api.PutSettings)

			apiRouter.Get("/rules", api.ListRules)
			apiRouter.Post("/rules", api.CreateRule)
			apiRouter.Put("/rules", api.ReplaceRules)
			apiRouter.Put("/rules/{id}", func(w http.ResponseWriter, r *http.Request) {
				api.UpdateRule(w, r, chi.URLParam(r, "id"))
			})
			apiRouter.Delete("/rules/{id}", func(w http.ResponseWriter, r *http.Request) {
				api.DeleteRule(w, r, chi.URLParam(r, "id"))
			})

			apiRouter.Post("/randomize", api.Randomize)
			apiRouter.Post("/evaluate", api.Evaluate)
			apiRouter.Get("/history", api.History)
		})
	})
	return r
}
