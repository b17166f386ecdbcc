package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/twolc"
	"github.com/aretw0/twolc/internal/config"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/ports"
)

// maxBody bounds the size of a grammar request.
const maxBody = 4 << 20

// CompileRequest is the body of POST /compile, /rules and /alphabet.
type CompileRequest struct {
	Name    string         `json:"name"`
	Grammar string         `json:"grammar"`
	Options map[string]any `json:"options,omitempty"`
	// Store saves the composed transducer in the server's store (POST /compile only).
	Store bool `json:"store,omitempty"`
}

// CompileResponse is returned by POST /compile.
type CompileResponse struct {
	Report     *domain.Report  `json:"report"`
	Transducer *fst.Transducer `json:"transducer"`
}

// RulesResponse is returned by POST /rules.
type RulesResponse struct {
	Report      *domain.Report    `json:"report"`
	Transducers []*fst.Transducer `json:"transducers"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string           `json:"error"`
	Kind  string           `json:"kind"`
	Stage domain.Stage     `json:"stage,omitempty"`
	Rule  string           `json:"rule,omitempty"`
	Pos   *domain.Position `json:"pos,omitempty"`
}

// Server exposes a GrammarCompiler over HTTP.
type Server struct {
	Compiler ports.GrammarCompiler
	// Config holds the defaults that request options are applied over.
	Config domain.Config
	// Store, Loader and Gatherer are optional.
	Store    ports.TransducerStore
	Loader   ports.GrammarLoader
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewHandler creates a new HTTP handler for the server.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/compile", s.Compile)
	r.Post("/rules", s.Rules)
	r.Post("/alphabet", s.Alphabet)

	if s.Store != nil {
		r.Route("/transducers", func(r chi.Router) {
			r.Get("/", s.ListTransducers)
			r.Get("/{name}", s.GetTransducer)
			r.Delete("/{name}", s.DeleteTransducer)
		})
	}
	if s.Loader != nil {
		r.Get("/grammars", s.ListGrammars)
		r.Post("/grammars/{id}/compile", s.CompileGrammar)
		r.Get("/events", s.SubscribeEvents)
	}
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decode reads a CompileRequest and applies its options over the defaults.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (CompileRequest, domain.Config, bool) {
	var body CompileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return body, domain.Config{}, false
	}
	if body.Name == "" {
		body.Name = "grammar"
	}
	cfg, err := config.Decode(body.Options, s.Config)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid options", err)
		return body, cfg, false
	}
	return body, cfg, true
}

// Compile handles POST /compile. With ?format=att the transducer is
// returned as AT&T text instead of JSON.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	body, cfg, ok := s.decode(w, r)
	if !ok {
		return
	}
	format, err := fst.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid format", err)
		return
	}
	s.compile(w, r, body.Name, body.Grammar, cfg, body.Store, format)
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request, name, text string, cfg domain.Config, store bool, format fst.Format) {
	t, report, err := s.Compiler.CompileText(r.Context(), name, text, cfg)
	if err != nil {
		s.compileFailed(w, "Compile", err)
		return
	}
	if store {
		if s.Store == nil {
			s.fail(w, http.StatusBadRequest, "no transducer store configured", nil)
			return
		}
		if err := s.Store.Save(r.Context(), t); err != nil {
			s.fail(w, http.StatusInternalServerError, fmt.Sprintf("failed to store transducer %q", t.Name), err)
			return
		}
	}
	if r.URL.Query().Has("format") {
		s.writeTransducer(w, t, format)
		return
	}
	s.writeJSON(w, http.StatusOK, CompileResponse{Report: report, Transducer: t})
}

// Rules handles POST /rules.
func (s *Server) Rules(w http.ResponseWriter, r *http.Request) {
	body, cfg, ok := s.decode(w, r)
	if !ok {
		return
	}
	ts, report, err := s.Compiler.RulesText(r.Context(), body.Name, body.Grammar, cfg)
	if err != nil {
		s.compileFailed(w, "Rules", err)
		return
	}
	s.writeJSON(w, http.StatusOK, RulesResponse{Report: report, Transducers: ts})
}

// Alphabet handles POST /alphabet.
func (s *Server) Alphabet(w http.ResponseWriter, r *http.Request) {
	body, _, ok := s.decode(w, r)
	if !ok {
		return
	}
	a, err := s.Compiler.AlphabetText(r.Context(), body.Name, body.Grammar)
	if err != nil {
		s.compileFailed(w, "Alphabet", err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

// ListGrammars handles GET /grammars.
func (s *Server) ListGrammars(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Loader.ListGrammars()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "list grammars", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// CompileGrammar handles POST /grammars/{id}/compile. The grammar text and
// its options come from the loader; the body is ignored.
func (s *Server) CompileGrammar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := s.Loader.GetGrammar(id)
	if errors.Is(err, domain.ErrGrammarNotFound) {
		s.fail(w, http.StatusNotFound, "grammar not found", err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "load grammar", err)
		return
	}
	cfg := s.Config
	if cl, ok := s.Loader.(ports.ConfigurableLoader); ok {
		opts, err := cl.GrammarOptions(id)
		if err == nil {
			cfg, err = config.Decode(opts, cfg)
		}
		if err != nil {
			s.fail(w, http.StatusBadRequest, "invalid grammar options", err)
			return
		}
	}
	format, err := fst.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid format", err)
		return
	}
	s.compile(w, r, id, string(data), cfg, s.Store != nil && r.URL.Query().Get("store") == "true", format)
}

// ListTransducers handles GET /transducers.
func (s *Server) ListTransducers(w http.ResponseWriter, r *http.Request) {
	names, err := s.Store.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "list transducers", err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

// GetTransducer handles GET /transducers/{name}.
func (s *Server) GetTransducer(w http.ResponseWriter, r *http.Request) {
	format, err := fst.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid format", err)
		return
	}
	t, err := s.Store.Load(r.Context(), chi.URLParam(r, "name"))
	if errors.Is(err, domain.ErrTransducerNotFound) {
		s.fail(w, http.StatusNotFound, "transducer not found", err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "load transducer", err)
		return
	}
	s.writeTransducer(w, t, format)
}

// DeleteTransducer handles DELETE /transducers/{name}.
func (s *Server) DeleteTransducer(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, http.StatusInternalServerError, "delete transducer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "twolc-http",
		"version": strings.TrimSpace(twolc.Version),
	})
}

// SubscribeEvents handles the GET /events request (SSE). When the loader
// is watchable, every changed grammar is recompiled and its outcome sent.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	watcher, ok := s.Loader.(ports.Watchable)
	if !ok {
		s.fail(w, http.StatusNotImplemented, "grammar loader cannot be watched", nil)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, http.StatusInternalServerError, "streaming not supported", nil)
		return
	}

	events, err := watcher.Watch(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "watch error", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE client disconnected")
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			event, payload := s.recompile(r.Context(), id)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
			flusher.Flush()
		}
	}
}

func (s *Server) recompile(ctx context.Context, id string) (string, []byte) {
	data, err := s.Loader.GetGrammar(id)
	if err == nil {
		var report *domain.Report
		_, report, err = s.Compiler.CompileText(ctx, id, string(data), s.Config)
		if err == nil {
			payload, _ := json.Marshal(report)
			return "compiled", payload
		}
	}
	payload, _ := json.Marshal(errorBody(err.Error(), err))
	return "failed", payload
}

func (s *Server) compileFailed(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsGrammarError(err):
		status = http.StatusUnprocessableEntity
		s.Logger.Warn(op+": grammar rejected", "error", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInternal):
		s.Logger.Error(op+" failed", "error", err)
	default:
		// Invalid options surface here before any stage runs.
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, errorBody(err.Error(), err))
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "status", status, "error", msg)
	} else {
		s.Logger.Warn("request rejected", "status", status, "error", msg)
	}
	s.writeJSON(w, status, errorBody(msg, err))
}

func errorBody(msg string, err error) ErrorResponse {
	resp := ErrorResponse{Error: msg, Kind: kind(err)}
	var ge *domain.GrammarError
	if errors.As(err, &ge) {
		resp.Stage = ge.Stage
		resp.Rule = ge.Rule
		pos := ge.Pos
		resp.Pos = &pos
	}
	var ie *domain.InternalError
	if errors.As(err, &ie) {
		resp.Stage = ie.Stage
	}
	return resp
}

func kind(err error) string {
	switch {
	case err == nil:
		return "request"
	case errors.Is(err, domain.ErrUnknownSymbol):
		return "unknown_symbol"
	case errors.Is(err, domain.ErrSyntax):
		return "syntax"
	case errors.Is(err, domain.ErrUnresolvedConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInternal):
		return "internal"
	case errors.Is(err, domain.ErrTransducerNotFound), errors.Is(err, domain.ErrGrammarNotFound):
		return "not_found"
	}
	return "request"
}

func (s *Server) writeTransducer(w http.ResponseWriter, t *fst.Transducer, format fst.Format) {
	var buf bytes.Buffer
	if err := fst.Encode(&buf, t, format); err != nil {
		s.fail(w, http.StatusInternalServerError, "encode transducer", err)
		return
	}
	if format == fst.FormatJSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write(buf.Bytes())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}
