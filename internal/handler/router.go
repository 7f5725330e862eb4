package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/handler/messages"
	"github.com/SaratA8717/Botbuilder-samples/internal/handler/stream"
	middlewarePkg "github.com/SaratA8717/Botbuilder-samples/internal/middleware"
	"github.com/SaratA8717/Botbuilder-samples/pkg/utils"
)

// NewRouter wires the bot ingress routes to an adapter and the bot logic.
func NewRouter(adapter *bot.Adapter, logic bot.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	messagesHandler := messages.New(adapter, logic, logger)
	streamHandler := stream.New(adapter, logic, logger)

	r.Route("/api", func(api chi.Router) {
		messagesHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
	})

	return r
}
