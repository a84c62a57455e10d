// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

// Routes returns the router for Google OAuth endpoints, a fixed table
// mapping each path to exactly one flow operation:
//
//	POST /signin    — initiate sign-in
//	POST /register  — initiate register
//	POST /cb/signin — sign-in callback
//	POST /cb/register — register callback
//	POST /gmail     — initiate mailbox consent (signed-in users only)
//	POST /gmail-cb  — mailbox consent callback
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/signin", h.ServeSignIn)
	r.Post("/register", h.ServeRegister)
	r.Post("/cb/signin", h.ServeSignInCallback)
	r.Post("/cb/register", h.ServeRegisterCallback)
	r.Post("/gmail", h.ServeGmail)
	r.Post("/gmail-cb", h.ServeGmailCallback)

	return r
}
