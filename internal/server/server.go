// Package server is the demo HTTP backend for route-bound dialogs. Each
// record is reachable at /dialog/{id}: GET returns its JSON and POST updates
// it, answering with {"ok":true,"record":...} or an error envelope.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/riordanpawley/routedialog/internal/domain"
	"github.com/rs/cors"
)

// RequestIDHeader carries the per-request id set by the logging middleware.
const RequestIDHeader = "X-Request-Id"

// maxRequestBytes bounds POST bodies.
const maxRequestBytes = 64 << 10

// Server serves records over HTTP.
type Server struct {
	store    *Store
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a server backed by store. A nil logger uses slog.Default.
func New(store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    store,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router returns the HTTP handler with all routes registered.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/records", s.listRecords).Methods(http.MethodGet)
	r.HandleFunc("/dialog/{id}", s.getRecord).Methods(http.MethodGet)
	r.HandleFunc("/dialog/{id}", s.submitRecord).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = WriteError(w, http.StatusNotFound, CodeNotFound, "route not found", nil)
	})
	return r
}

// Handler returns Router wrapped for browser clients on other origins.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         600,
	})
	return c.Handler(s.Router())
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	}
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	q, err := domain.ParseQuery(r.URL.Query())
	if err != nil {
		_ = WriteError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error(), nil)
		return
	}
	_ = WriteJSON(w, http.StatusOK, q.Apply(s.store.List()))
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) submitRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in domain.RecordInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		_ = WriteError(w, http.StatusBadRequest, CodeInvalidJSON, "request body is not valid JSON", nil)
		return
	}
	in = in.Normalize()

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			s.writeStoreError(w, r, err)
			return
		}
		meta := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			meta[jsonField(fe.Field())] = fe.Tag()
		}
		_ = WriteError(w, http.StatusUnprocessableEntity, CodeValidationFailed, validationMessage(fieldErrs), meta)
		return
	}

	rec, err := s.store.Update(id, in)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.logger.Info("record updated", "id", rec.ID, "request_id", w.Header().Get(RequestIDHeader))
	_ = WriteJSON(w, http.StatusOK, domain.SubmitResult{OK: true, Record: rec})
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		_ = WriteError(w, http.StatusNotFound, CodeNotFound, "record not found", map[string]string{"id": mux.Vars(r)["id"]})
		return
	}
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	_ = WriteError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
}

func jsonField(field string) string {
	switch field {
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Notes":
		return "notes"
	default:
		return field
	}
}

func validationMessage(errs validator.ValidationErrors) string {
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return jsonField(fe.Field()) + " is required"
	case "email":
		return jsonField(fe.Field()) + " must be a valid email address"
	case "max":
		return jsonField(fe.Field()) + " must be at most " + fe.Param() + " characters"
	default:
		return jsonField(fe.Field()) + " is invalid"
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
