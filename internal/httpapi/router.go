package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/riichinakano/forest-zaim-app/internal/logging"
)

// Handler builds the router with the middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders().Handler)
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
	}
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/{statement}", func(r chi.Router) {
		r.Get("/years", s.handleYears)
		r.Get("/options", s.handleOptions)
		r.Get("/series", s.handleSeries)
		r.Get("/series/export.csv", s.handleSeriesCSV)
		r.Get("/table", s.handleTable)
		r.Get("/table/export.csv", s.handleTableCSV)
		r.Get("/chart.svg", s.handleChart)
		r.Post("/reload", s.handleReload)
	})

	return r
}

func secureHeaders() *secure.Secure {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'",
	})
}

// requestLogger logs one line per request with its chi request ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("request",
			slog.String(logging.FieldRequestID, middleware.GetReqID(r.Context())),
			slog.String(logging.FieldMethod, r.Method),
			slog.String(logging.FieldPath, r.URL.Path),
			slog.Int(logging.FieldStatusCode, status),
			slog.String(logging.FieldClientIP, r.RemoteAddr),
			slog.Int64(logging.FieldDuration, time.Since(start).Milliseconds()))
	})
}
