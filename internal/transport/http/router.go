package http

import (
	"net/http"

	httpmw "github.com/cwrk-planet/chatroom/internal/transport/http/middleware"
	"github.com/cwrk-planet/chatroom/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the REST routes. ws may be nil when the realtime feed is off.
func NewRouter(h *Handler, ws http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(httputil.EchoRequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", httpmw.HeaderUser, httputil.HeaderRequestID},
		ExposedHeaders: []string{httputil.HeaderRequestID},
		MaxAge:         300,
	}))

	// WS endpoint, outside the request logger: the connection is hijacked
	if ws != nil {
		r.Get("/ws", ws)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(httputil.WithRequestLoggerCtx)
		pr.Use(httputil.RequestLogger)
		pr.Use(httpmw.Identity)

		pr.Route("/participants", func(rp chi.Router) {
			rp.Post("/", h.CreateParticipant)
			rp.Get("/", h.ListParticipants)
		})

		pr.Route("/messages", func(rm chi.Router) {
			rm.Post("/", h.PostMessage)
			rm.Get("/", h.ListMessages)
			rm.Put("/{id}", h.EditMessage)
			rm.Delete("/{id}", h.DeleteMessage)
		})

		pr.Post("/status", h.Heartbeat)

		// health
		pr.Get("/healthz", h.Health)
	})

	return r
}
