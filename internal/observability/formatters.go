// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/michael/vc-council/internal/debate"
	"github.com/michael/vc-council/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxEventsToShow caps the calendar events displayed in summaries
	maxEventsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPlan outputs the debate round structure before a run starts.
func (p *Printer) PrintPlan(steps []debate.Step) {
	if len(steps) == 0 {
		return
	}

	var sb strings.Builder
	currentRound := 0
	for _, step := range steps {
		if step.Round != currentRound {
			if currentRound != 0 {
				sb.WriteString("\n")
			}
			currentRound = step.Round
			sb.WriteString(fmt.Sprintf("Round %d (%s):\n", step.Round, step.Topic))
		}
		sb.WriteString(fmt.Sprintf("  %2d. %s\n", step.Index, step.Role))
	}

	p.printBox("DEBATE PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStepRecord outputs a single completed step with its visible context.
func (p *Printer) PrintStepRecord(record types.StepRecord) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Round:   %d\n", record.Round))
	sb.WriteString(fmt.Sprintf("Role:    %s\n", record.Role))

	if len(record.Context) == 0 {
		sb.WriteString("Context: (fresh)\n")
	} else {
		refs := make([]string, len(record.Context))
		for i, idx := range record.Context {
			refs[i] = fmt.Sprintf("%d", idx)
		}
		sb.WriteString(fmt.Sprintf("Context: steps %s\n", strings.Join(refs, ", ")))
	}

	sb.WriteString("\n")
	output := strings.TrimSpace(record.Output)
	if len(output) > 200 {
		output = output[:197] + "..."
	}
	sb.WriteString(output)

	p.printBox(fmt.Sprintf("STEP %d / %d", record.Index, debate.TotalSteps), sb.String())
}

// PrintDecision outputs the final committee decision with scheduled events.
func (p *Printer) PrintDecision(result *types.DecisionResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Decision: %s\n", result.Decision))

	reasoning := strings.TrimSpace(result.Reasoning)
	if reasoning != "" {
		if len(reasoning) > 150 {
			reasoning = reasoning[:147] + "..."
		}
		sb.WriteString("\nReasoning:\n")
		sb.WriteString(fmt.Sprintf("  %s\n", reasoning))
	}

	if len(result.CalendarEvents) > 0 {
		sb.WriteString("\nScheduled Events:\n")
		count := min(len(result.CalendarEvents), maxEventsToShow)
		for i := 0; i < count; i++ {
			ev := result.CalendarEvents[i]
			title := ev.Title
			if len(title) > 35 {
				title = title[:32] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", title))
			sb.WriteString(fmt.Sprintf("    %s\n", ev.Start.Format("Jan 2 15:04")))
		}
	}

	p.printBox("INVESTMENT DECISION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintError outputs a failed run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintError(err error) {
	if err == nil {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ANALYSIS COMPLETED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	msg := err.Error()
	p.printBox("ANALYSIS FAILED", fmt.Sprintf("⚠ %s", msg))
}
