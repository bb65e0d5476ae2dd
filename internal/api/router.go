package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/chatter-be/internal/api/handlers"
	"github.com/isdelr/chatter-be/internal/auth"
	"github.com/isdelr/chatter-be/internal/config"
	"github.com/isdelr/chatter-be/internal/media"
	"github.com/isdelr/chatter-be/internal/services"
	"github.com/isdelr/chatter-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	hub *websocket.Hub,
	sessions *auth.SessionManager,
	userService services.UserServiceProvider,
	messageService services.MessageServiceProvider,
	mediaStore *media.Store,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, sessions)
	messageHandler := handlers.NewMessageHandler(userService, messageService, hub)
	wsHandler := handlers.NewWebSocketHandler(hub, sessions, userService, cfg.AllowedOrigins)

	r.Route("/api", func(r chi.Router) {
		// Realtime gateway; authenticates the handshake itself.
		r.Get("/ws", wsHandler.Serve)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(sessions.Middleware())
				r.Get("/check", authHandler.Check)
				r.Put("/update-profile", authHandler.UpdateProfile)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(sessions.Middleware())
			r.Get("/users", messageHandler.GetUsers)
			r.Get("/{userId}", messageHandler.GetMessages)
			r.Post("/send/{userId}", messageHandler.Send)
		})
	})

	r.Handle(media.URLPrefix+"/*", uploadsHandler(mediaStore.Root()))

	if cfg.IsProduction() {
		r.Get("/*", spaHandler(cfg.StaticDir))
	}

	return r
}
