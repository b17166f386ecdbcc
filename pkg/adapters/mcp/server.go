package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/twolc"
	"github.com/aretw0/twolc/internal/config"
	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
	"github.com/aretw0/twolc/pkg/ports"
)

const grammarsURI = "twolc://grammars"

// CompileResponse provides a unified structure for the compile tools.
type CompileResponse struct {
	Report *domain.Report `json:"report" jsonschema_description:"Compile report: alphabet, rules and conflicts"`
	// Transducers holds one AT&T table per output transducer.
	Transducers []Transducer `json:"transducers" jsonschema_description:"Compiled transducers in AT&T tabular format"`
}

// Transducer is one compiled transducer as text.
type Transducer struct {
	Name   string `json:"name"`
	States int    `json:"states"`
	ATT    string `json:"att"`
}

// Server wraps a GrammarCompiler and exposes it as an MCP Server.
type Server struct {
	compiler  ports.GrammarCompiler
	loader    ports.GrammarLoader
	config    domain.Config
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. loader may be nil.
func NewServer(compiler ports.GrammarCompiler, loader ports.GrammarLoader, cfg domain.Config) *Server {
	s := &Server{
		compiler:  compiler,
		loader:    loader,
		config:    cfg,
		mcpServer: server.NewMCPServer("twolc-mcp", strings.TrimSpace(twolc.Version)),
	}
	s.registerTools()
	if loader != nil {
		s.registerResources()
	}
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: compile_grammar
	s.mcpServer.AddTool(mcp.NewTool("compile_grammar",
		mcp.WithDescription("Compile a two-level rule grammar into one composed transducer."),
		mcp.WithString("grammar", mcp.Required(), mcp.Description("Grammar source text")),
		mcp.WithString("name", mcp.Description("Grammar name used for the transducer and diagnostics")),
		mcp.WithString("options", mcp.Description("JSON object of compile options (e.g. resolve_left_conflicts, variant)")),
		mcp.WithOutputSchema[CompileResponse](),
	), mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: compile_rules
	s.mcpServer.AddTool(mcp.NewTool("compile_rules",
		mcp.WithDescription("Compile a grammar into one transducer per rule, in source order."),
		mcp.WithString("grammar", mcp.Required(), mcp.Description("Grammar source text")),
		mcp.WithString("name", mcp.Description("Grammar name used for diagnostics")),
		mcp.WithString("options", mcp.Description("JSON object of compile options")),
		mcp.WithOutputSchema[CompileResponse](),
	), mcp.NewStructuredToolHandler(s.handleRules))

	// TOOL: grammar_alphabet
	s.mcpServer.AddTool(mcp.NewTool("grammar_alphabet",
		mcp.WithDescription("Resolve the feasible pairs and non-alphabet symbols of a grammar without compiling its rules."),
		mcp.WithString("grammar", mcp.Required(), mcp.Description("Grammar source text")),
		mcp.WithString("name", mcp.Description("Grammar name used for diagnostics")),
		mcp.WithOutputSchema[domain.Alphabet](),
	), mcp.NewStructuredToolHandler(s.handleAlphabet))

	if s.loader == nil {
		return
	}

	// TOOL: compile_stored_grammar
	s.mcpServer.AddTool(mcp.NewTool("compile_stored_grammar",
		mcp.WithDescription("Compile a grammar from the repository by ID, with its own options."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Grammar ID")),
		mcp.WithOutputSchema[CompileResponse](),
	), mcp.NewStructuredToolHandler(s.handleStored))
}

func (s *Server) options(args map[string]interface{}) (domain.Config, error) {
	raw, _ := args["options"].(string)
	if raw == "" {
		return s.config, nil
	}
	var opts map[string]any
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return s.config, fmt.Errorf("options must be a JSON object: %w", err)
	}
	return config.Decode(opts, s.config)
}

func grammarArgs(args map[string]interface{}) (name, text string) {
	text, _ = args["grammar"].(string)
	name, _ = args["name"].(string)
	if name == "" {
		name = "grammar"
	}
	return name, text
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompileResponse, error) {
	name, text := grammarArgs(args)
	cfg, err := s.options(args)
	if err != nil {
		return CompileResponse{}, err
	}
	return s.compile(ctx, name, text, cfg)
}

func (s *Server) compile(ctx context.Context, name, text string, cfg domain.Config) (CompileResponse, error) {
	t, report, err := s.compiler.CompileText(ctx, name, text, cfg)
	if err != nil {
		slog.Warn("MCP compile failed", "grammar", name, "error", err)
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	return respond(report, t)
}

func (s *Server) handleRules(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompileResponse, error) {
	name, text := grammarArgs(args)
	cfg, err := s.options(args)
	if err != nil {
		return CompileResponse{}, err
	}
	ts, report, err := s.compiler.RulesText(ctx, name, text, cfg)
	if err != nil {
		slog.Warn("MCP rules failed", "grammar", name, "error", err)
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	return respond(report, ts...)
}

func (s *Server) handleAlphabet(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Alphabet, error) {
	name, text := grammarArgs(args)
	a, err := s.compiler.AlphabetText(ctx, name, text)
	if err != nil {
		return domain.Alphabet{}, fmt.Errorf("alphabet failed: %w", err)
	}
	return a, nil
}

func (s *Server) handleStored(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompileResponse, error) {
	id, _ := args["id"].(string)
	data, err := s.loader.GetGrammar(id)
	if err != nil {
		return CompileResponse{}, err
	}
	cfg := s.config
	if cl, ok := s.loader.(ports.ConfigurableLoader); ok {
		opts, err := cl.GrammarOptions(id)
		if err != nil {
			return CompileResponse{}, err
		}
		if cfg, err = config.Decode(opts, cfg); err != nil {
			return CompileResponse{}, fmt.Errorf("grammar %s: %w", id, err)
		}
	}
	return s.compile(ctx, id, string(data), cfg)
}

func respond(report *domain.Report, ts ...*fst.Transducer) (CompileResponse, error) {
	resp := CompileResponse{Report: report, Transducers: make([]Transducer, 0, len(ts))}
	for _, t := range ts {
		var sb strings.Builder
		if err := t.WriteATT(&sb); err != nil {
			return CompileResponse{}, err
		}
		resp.Transducers = append(resp.Transducers, Transducer{
			Name:   t.Name,
			States: t.Trim().States,
			ATT:    sb.String(),
		})
	}
	return resp, nil
}

func (s *Server) registerResources() {
	// EXPOSE: twolc://grammars
	s.mcpServer.AddResource(mcp.NewResource(grammarsURI, "Available Grammars",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.loader.ListGrammars()
		if err != nil {
			return nil, fmt.Errorf("failed to list grammars: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      grammarsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
