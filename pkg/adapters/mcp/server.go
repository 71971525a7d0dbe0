// Package mcp exposes the engine over the Model Context Protocol so
// agent frontends can drive conversations, browse the domain catalog and
// approve learned patterns as first-class tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

// TurnService processes one conversational turn.
type TurnService interface {
	Handle(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error)
}

// PatternPromoter converts a suggested pattern into a persisted plan.
type PatternPromoter interface {
	Promote(ctx context.Context, d *domain.Domain, fingerprint string) (*domain.Plan, error)
}

// TurnOutput is the structured result of the handle_turn tool.
type TurnOutput struct {
	SessionID string `json:"sessionId" jsonschema_description:"Session to reuse on the next turn"`
	Response  string `json:"response" jsonschema_description:"Rendered reply for the user"`
	Status    string `json:"status" jsonschema_description:"running, waiting_for_user, completed or failed"`
	Terminal  bool   `json:"terminal" jsonschema_description:"Whether the conversation flow finished this turn"`
}

// DomainsOutput is the structured result of the list_domains tool.
type DomainsOutput struct {
	Domains []DomainInfo `json:"domains"`
}

// DomainInfo is one catalog row.
type DomainInfo struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Intents   []string `json:"intents,omitempty" jsonschema_description:"Intents reachable via trigger phrases"`
	Functions int      `json:"functions"`
}

// ApproveOutput is the structured result of the approve_pattern tool.
type ApproveOutput struct {
	Fingerprint string `json:"fingerprint"`
	PlanID      string `json:"planId"`
	Steps       int    `json:"steps"`
}

// Server exposes the engine as an MCP server.
type Server struct {
	turns     TurnService
	catalog   ports.Catalog
	patterns  ports.PatternStore
	promoter  PatternPromoter
	log       *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer wires the MCP surface. version is reported during the MCP
// handshake.
func NewServer(turns TurnService, catalog ports.Catalog, patterns ports.PatternStore, promoter PatternPromoter, version string, log *slog.Logger) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Server{
		turns:     turns,
		catalog:   catalog,
		patterns:  patterns,
		promoter:  promoter,
		log:       log,
		mcpServer: server.NewMCPServer("ascendia-mcp", version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves MCP on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on the given address until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://localhost"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop MCP server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	turnTool := mcp.NewTool("handle_turn",
		mcp.WithDescription("Process one conversational turn for a domain. Reuse the returned sessionId to continue the same conversation."),
		mcp.WithString("domain_id", mcp.Required(), mcp.Description("Configured domain to address")),
		mcp.WithString("utterance", mcp.Required(), mcp.Description("What the user said")),
		mcp.WithString("session_id", mcp.Description("Existing session to continue (omit to start one)")),
		mcp.WithOutputSchema[TurnOutput](),
	)
	s.mcpServer.AddTool(turnTool, mcp.NewStructuredToolHandler(s.handleTurn))

	domainsTool := mcp.NewTool("list_domains",
		mcp.WithDescription("List the configured domains with their trigger intents."),
		mcp.WithOutputSchema[DomainsOutput](),
	)
	s.mcpServer.AddTool(domainsTool, mcp.NewStructuredToolHandler(s.handleListDomains))

	approveTool := mcp.NewTool("approve_pattern",
		mcp.WithDescription("Promote a suggested usage pattern into a reusable plan."),
		mcp.WithString("fingerprint", mcp.Required(), mcp.Description("Fingerprint from the suggestion queue")),
		mcp.WithOutputSchema[ApproveOutput](),
	)
	s.mcpServer.AddTool(approveTool, mcp.NewStructuredToolHandler(s.handleApprovePattern))
}

func (s *Server) handleTurn(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (TurnOutput, error) {
	domainID, _ := args["domain_id"].(string)
	utterance, _ := args["utterance"].(string)
	sessionID, _ := args["session_id"].(string)

	result, err := s.turns.Handle(ctx, domain.TurnRequest{
		SessionID: sessionID,
		DomainID:  domainID,
		Utterance: utterance,
	})
	if err != nil {
		s.log.Warn("MCP turn failed", "domain", domainID, "err", err)
		return TurnOutput{}, fmt.Errorf("turn failed: %w", err)
	}

	return TurnOutput{
		SessionID: result.SessionID,
		Response:  result.Response,
		Status:    string(result.Status),
		Terminal:  result.Terminal,
	}, nil
}

func (s *Server) handleListDomains(ctx context.Context, _ mcp.CallToolRequest, _ map[string]interface{}) (DomainsOutput, error) {
	ids, err := s.catalog.Domains(ctx)
	if err != nil {
		return DomainsOutput{}, fmt.Errorf("catalog unavailable: %w", err)
	}

	out := DomainsOutput{Domains: make([]DomainInfo, 0, len(ids))}
	for _, id := range ids {
		entry, err := s.catalog.Domain(ctx, id)
		if err != nil {
			return DomainsOutput{}, fmt.Errorf("load domain %s: %w", id, err)
		}
		out.Domains = append(out.Domains, DomainInfo{
			ID:        entry.Domain.ID,
			Name:      entry.Domain.Name,
			Intents:   entry.Domain.Intents(),
			Functions: len(entry.Domain.Functions),
		})
	}
	return out, nil
}

func (s *Server) handleApprovePattern(ctx context.Context, _ mcp.CallToolRequest, args map[string]interface{}) (ApproveOutput, error) {
	fingerprint, _ := args["fingerprint"].(string)

	obs, err := s.patterns.Get(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, domain.ErrPatternNotFound) {
			return ApproveOutput{}, fmt.Errorf("unknown pattern %s", fingerprint)
		}
		return ApproveOutput{}, fmt.Errorf("pattern store unavailable: %w", err)
	}

	entry, err := s.catalog.Domain(ctx, obs.DomainID)
	if err != nil {
		return ApproveOutput{}, fmt.Errorf("pattern's domain %s is no longer configured", obs.DomainID)
	}

	plan, err := s.promoter.Promote(ctx, entry.Domain, fingerprint)
	if err != nil {
		return ApproveOutput{}, err
	}
	return ApproveOutput{Fingerprint: fingerprint, PlanID: plan.ID, Steps: len(plan.Steps)}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("ascendia://domains", "Configured Domains",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.catalog.Domains(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog unavailable: %w", err)
		}
		domains := make([]*domain.Domain, 0, len(ids))
		for _, id := range ids {
			entry, err := s.catalog.Domain(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("load domain %s: %w", id, err)
			}
			domains = append(domains, entry.Domain)
		}
		jsonBytes, err := json.Marshal(domains)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "ascendia://domains",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
