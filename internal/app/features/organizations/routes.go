// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/buildrite/buildrite/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all Organization routes under the base path
// (typically "/organizations" from bootstrap). Everything requires a
// signed-in user; ownership checks live in the handlers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}", h.ServeView)
		pr.Post("/{id}/payment-method", h.HandleAttachPaymentMethod)
	})

	return r
}
