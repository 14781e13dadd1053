// Package review implements the per-model review collaborators: an
// interactive console prompt and an automatic approve-all policy.
package review

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Faultbox/meshforge/internal/pipeline"
)

// Action is the reviewer's verdict for one model.
type Action int

// Review actions.
const (
	Approve Action = iota
	Skip
	Redo
	Quit
)

// String returns a human-readable action name.
func (a Action) String() string {
	switch a {
	case Approve:
		return "approve"
	case Skip:
		return "skip"
	case Redo:
		return "redo"
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// Decision is consumed once per model by the batch controller.
// Adjusted, when set on Redo, re-runs the same model with new
// parameters.
type Decision struct {
	Action   Action
	Adjusted *pipeline.Options
}

// Stats is what the reviewer sees for one processed model.
type Stats struct {
	Model         string
	Category      string
	OriginalFaces int
	Results       []pipeline.LODResult
}

// Reviewer decides the fate of one processed model.
type Reviewer interface {
	Review(stats Stats) (Decision, error)
}

// AutoApprove approves every model without interaction.
type AutoApprove struct{}

// Review always approves.
func (AutoApprove) Review(Stats) (Decision, error) {
	return Decision{Action: Approve}, nil
}

// Console prompts on a terminal for each model.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a console reviewer on stdin/stdout.
func NewConsole() *Console {
	return &Console{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// NewConsoleWith creates a console reviewer on explicit streams.
func NewConsoleWith(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Review prints the model's statistics and reads one decision.
// Unrecognized input re-prompts.
func (c *Console) Review(stats Stats) (Decision, error) {
	fmt.Fprintf(c.out, "\n%s  (%s)\n", stats.Model, stats.Category)
	fmt.Fprintf(c.out, "  original: %d faces\n", stats.OriginalFaces)
	for _, r := range stats.Results {
		fmt.Fprintf(c.out, "  %s: %d faces  strategy=%s  buffers=%d",
			r.Label, r.FaceCount, r.Strategy, r.Budget.BufferCount)
		if r.Budget.OverLimit {
			fmt.Fprint(c.out, "  OVER BUDGET")
		}
		fmt.Fprintln(c.out)
		for _, w := range r.Budget.Warnings {
			fmt.Fprintf(c.out, "    warning: %s\n", w)
		}
	}

	for {
		fmt.Fprint(c.out, "[a]pprove  [s]kip  [r]edo  [q]uit > ")
		line, err := c.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Closed input ends the batch cleanly.
				return Decision{Action: Quit}, nil
			}
			return Decision{}, fmt.Errorf("reading review decision: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve":
			return Decision{Action: Approve}, nil
		case "s", "skip":
			return Decision{Action: Skip}, nil
		case "r", "redo":
			return Decision{Action: Redo}, nil
		case "q", "quit":
			return Decision{Action: Quit}, nil
		}
	}
}
