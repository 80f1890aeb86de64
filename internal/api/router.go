package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ladle/internal/recipeservice"
	"github.com/starford/ladle/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether session auth is enforced on the recipe routes;
// login/logout/session are always reachable.
// eventsHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *recipeservice.Service, sessions *session.Store, creds Credentials, authEnabled bool, eventsHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ah := NewAuthHandler(sessions, creds, !authEnabled)

	r := chi.NewRouter()

	// Session endpoints stay outside the auth group; a client needs them to
	// obtain and probe its credential.
	r.Post("/login", ah.Login)
	r.Post("/logout", ah.Logout)
	r.Get("/session", ah.Session)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, sessions))

		// Recipes CRUD.
		r.Get("/recipes", h.ListRecipes)
		r.Post("/recipes", h.SaveRecipe)
		r.Get("/recipes/{name}", h.GetRecipe)
		r.Delete("/recipes/{name}", h.DeleteRecipe)
		r.Delete("/recipes/{name}/photos/{filename}", h.DeletePhoto)

		// Tags.
		r.Delete("/tags/{tag}", h.DeleteTag)

		// Photos.
		r.Get("/photos/{name}/{filename}", h.GetPhoto)

		// SSE endpoint (protected by same auth middleware).
		if eventsHandler != nil {
			r.Get("/events", eventsHandler.ServeHTTP)
		}
	})

	return r
}
