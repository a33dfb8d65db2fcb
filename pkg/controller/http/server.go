package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/makola-community/makola/pkg/usecase"
	"github.com/makola-community/makola/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
	authUC AuthUseCase
}

type Options func(*Server)

// WithAuth overrides the authenticator taken from the use cases
func WithAuth(authUC AuthUseCase) Options {
	return func(s *Server) {
		s.authUC = authUC
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
		authUC: uc.Auth,
	}
	for _, opt := range opts {
		opt(s)
	}

	issues := &issueHandler{uc: uc.Issue}
	comments := &commentHandler{uc: uc.Comment}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(s.authUC))

		r.Get("/me", meHandler)

		r.Route("/issues", func(r chi.Router) {
			r.Post("/", issues.create)
			r.Get("/", issues.list)

			r.Route("/{issueID}", func(r chi.Router) {
				r.Get("/", issues.get)
				r.Patch("/", issues.update)
				r.Delete("/", issues.delete)
				r.Patch("/status", issues.changeStatus)
				r.Post("/assignment", issues.assign)
				r.Post("/votes", issues.upvote)
				r.Post("/photos", issues.attachPhoto)
				r.Post("/photos/upload-url", issues.createUploadURL)
				r.Post("/comments", comments.create)
				r.Get("/comments", comments.list)
			})
		})

		r.Route("/comments/{commentID}", func(r chi.Router) {
			r.Patch("/", comments.edit)
			r.Delete("/", comments.delete)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
