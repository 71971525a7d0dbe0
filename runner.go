package ascendia

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// Runner handles a console conversation loop over the engine using
// provided IO. This allows for easy testing and integration with different
// frontends (plain CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	DomainID string

	// SessionID pins the conversation; empty generates a fresh one.
	SessionID string

	// Renderer transforms responses before output. This allows TUI
	// rendering (markdown to ANSI) without coupling the core package.
	Renderer ContentRenderer

	// Headless suppresses the banner and prompts for piped input.
	Headless bool
}

// ContentRenderer transforms a response before it is written.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner for one domain. Set Input/Output before Run
// (os.Stdin and os.Stdout for an interactive console).
func NewRunner(domainID string) *Runner {
	return &Runner{DomainID: domainID}
}

// Run reads utterances line by line until EOF or "/quit", forwarding each
// to the engine and printing the response. A terminal turn does not end
// the loop; the next line simply starts a fresh conversation in the same
// session.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if r.DomainID == "" {
		return fmt.Errorf("domain id must be set")
	}

	sessionID := r.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reader := bufio.NewReader(r.Input)
	if !r.Headless {
		fmt.Fprintf(r.Output, "--- Ascendia (%s, session %s) ---\n", r.DomainID, sessionID)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		utterance := strings.TrimSpace(line)
		if utterance == "" {
			continue
		}
		if utterance == "/quit" || utterance == "/exit" {
			return nil
		}

		result, err := engine.Handle(ctx, domain.TurnRequest{
			DomainID:  r.DomainID,
			SessionID: sessionID,
			Utterance: utterance,
		})
		if err != nil {
			fmt.Fprintf(r.Output, "error: %v\n", err)
			continue
		}

		output := result.Response
		if r.Renderer != nil {
			if rendered, rerr := r.Renderer(output); rerr == nil {
				output = rendered
			}
		}
		fmt.Fprintln(r.Output, strings.TrimSpace(output))
	}
}
