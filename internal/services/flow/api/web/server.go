// Package web serves tech attack flows over HTTP.
//
// Successful flows answer with the HTML card. Aborted flows answer with a
// notice fragment and a status derived from the abort code.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc/codes"

	apperrors "github.com/louisbranch/lancerflow/internal/platform/errors"
	"github.com/louisbranch/lancerflow/internal/platform/timeouts"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/app"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

const maxBodyBytes = 1 << 20

// Flows is the part of app.App the handlers use.
type Flows interface {
	TechAttack(ctx context.Context, sourceID, actionPath string, req app.Request) (app.Response, error)
	RunMacro(ctx context.Context, token string, req app.Request) (app.Response, error)
}

// negotiation is the JSON shape of pre-negotiated edits.
type negotiation struct {
	TargetIDs []string                `json:"target_ids"`
	Base      *accdiff.Edit           `json:"base"`
	Targets   map[string]accdiff.Edit `json:"targets"`
	Cancel    bool                    `json:"cancel"`
}

func (n negotiation) request() app.Request {
	return app.Request{TargetIDs: n.TargetIDs, Base: n.Base, Edits: n.Targets, Cancel: n.Cancel}
}

type techRequest struct {
	SourceID   string `json:"source_id"`
	ActionPath string `json:"action_path"`
	negotiation
}

type macroRequest struct {
	Token string `json:"token"`
	negotiation
}

// NewHandler builds the HTTP routes.
func NewHandler(flows Flows, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	h := &handlers{flows: flows, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "lancerflow.web")
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Post("/flows/tech", h.techAttack)
	r.Post("/macros", h.macro)
	return r
}

type handlers struct {
	flows  Flows
	logger *log.Logger
}

func (h *handlers) techAttack(w http.ResponseWriter, r *http.Request) {
	var body techRequest
	if !h.decode(w, r, &body) {
		return
	}
	if body.SourceID == "" {
		writeError(w, http.StatusBadRequest, "source_id is required")
		return
	}
	resp, err := h.flows.TechAttack(r.Context(), body.SourceID, body.ActionPath, body.request())
	h.respond(w, r, resp, err)
}

func (h *handlers) macro(w http.ResponseWriter, r *http.Request) {
	var body macroRequest
	if !h.decode(w, r, &body) {
		return
	}
	resp, err := h.flows.RunMacro(r.Context(), body.Token, body.request())
	h.respond(w, r, resp, err)
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (h *handlers) respond(w http.ResponseWriter, r *http.Request, resp app.Response, err error) {
	if err != nil {
		h.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	result := resp.Result
	w.Header().Set("X-Flow-ID", result.FlowID)
	w.Header().Set("X-Flow-State", string(result.State))
	if result.Done() {
		writeHTML(w, http.StatusOK, result.Rendered)
		return
	}
	if result.Abort == nil || result.Abort.Kind == tech.AbortUser {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	status := StatusFor(result.Abort.Code)
	var fragment string
	for _, notice := range resp.Notices {
		fragment += noticeFragment(notice)
	}
	writeHTML(w, status, fragment)
}

// StatusFor maps an abort code to an HTTP status through its gRPC class.
func StatusFor(code apperrors.Code) int {
	switch code.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	http.Error(w, message, status)
}

// Server runs the handler until its context is done.
type Server struct {
	Addr    string
	Handler http.Handler
	Logger  *log.Logger
}

// Run listens on Addr and shuts down gracefully when ctx is cancelled.
func (s Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
		ReadTimeout:       timeouts.Read,
		WriteTimeout:      timeouts.Write,
	}
	errs := make(chan error, 1)
	go func() {
		if s.Logger != nil {
			s.Logger.Printf("listening on %s", s.Addr)
		}
		errs <- srv.ListenAndServe()
	}()
	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
