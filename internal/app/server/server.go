// Package server exposes the ingestion pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avirtanen/trainmail/internal/app/ingest"
	"github.com/avirtanen/trainmail/internal/pkg/logger"
)

// MailService is the pipeline surface consumed by the HTTP handlers.
// Satisfied by *ingest.Service.
type MailService interface {
	MessagesFromSender(ctx context.Context, sender string) ([]ingest.Message, error)
	AllMessages(ctx context.Context) ([]ingest.Message, error)
	MessageByUID(ctx context.Context, uid uint32) (*ingest.Message, error)
}

type Server struct {
	mail   MailService
	logger *slog.Logger
}

func New(mail MailService, log *slog.Logger) *Server {
	return &Server{
		mail:   mail,
		logger: log,
	}
}

// Router builds the HTTP routing tree. requestTimeout bounds the
// handling of a single request end to end, IMAP round trips included.
func (s *Server) Router(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	// The mobile client runs in web mode during development and calls
	// the API cross-origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/emails", s.listEmails)
		r.Get("/emails/from/{sender}", s.listEmailsFromSender)
		r.Get("/emails/{id}", s.getEmail)
	})

	return r
}

// requestLogger stamps the request id into the logging context and
// records each request's outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithAttrs(r.Context(), slog.String("request_id", middleware.GetReqID(r.Context())))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.InfoContext(ctx, "request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
