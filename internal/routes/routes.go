package routes

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/nyra-health/nyra-coach/internal/config"
	"github.com/nyra-health/nyra-coach/internal/handlers"
	"github.com/nyra-health/nyra-coach/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Health       *handlers.HealthHandler
	Conversation *handlers.ConversationHandler
	Persona      *handlers.PersonaHandler
	Chats        *handlers.ChatsHandler
	Auth         *handlers.AuthHandler
	GoogleAuth   *handlers.GoogleAuthHandler
}

// SetupRoutes configures all application routes on mux
func SetupRoutes(mux *http.ServeMux, h Handlers, jwtCfg *config.JWTConfig) {
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.AuthMiddleware(next, jwtCfg)
	}

	// Health check routes
	mux.HandleFunc("GET /healthz", h.Health.HealthCheck)
	mux.HandleFunc("GET /livez", h.Health.LivenessCheck)
	mux.HandleFunc("GET /readyz", h.Health.ReadinessCheck)

	// Coaching routes
	mux.HandleFunc("POST /api/chat", h.Conversation.Chat)
	mux.HandleFunc("POST /api/extract-persona", h.Persona.ExtractPersona)
	mux.HandleFunc("GET /api/persona", auth(h.Persona.GetPersona))
	mux.HandleFunc("PUT /api/persona", auth(h.Persona.SavePersona))

	// Chat history routes
	mux.HandleFunc("GET /api/chats", auth(h.Chats.ListChats))
	mux.HandleFunc("POST /api/chats", auth(h.Chats.CreateChat))
	mux.HandleFunc("PATCH /api/chats/{id}", auth(h.Chats.RenameChat))
	mux.HandleFunc("DELETE /api/chats/{id}", auth(h.Chats.DeleteChat))
	mux.HandleFunc("GET /api/chats/{id}/messages", auth(h.Chats.ListMessages))
	mux.HandleFunc("POST /api/chats/{id}/messages", auth(h.Chats.AddMessage))

	// Authentication routes
	mux.HandleFunc("GET /api/auth/google/login", h.GoogleAuth.GoogleLogin)
	mux.HandleFunc("GET /api/auth/google/callback", h.GoogleAuth.GoogleCallback)
	mux.HandleFunc("GET /api/auth/me", auth(h.Auth.Me))

	// API docs
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Root route
	mux.HandleFunc("GET /{$}", rootHandler)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("nyra-coach backend is running."))
}
