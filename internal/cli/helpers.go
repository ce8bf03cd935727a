package cli

import (
	"fmt"
	"strings"

	"github.com/prodassist/infractl/internal/engine"
	"github.com/prodassist/infractl/internal/resource"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// renderPlan prints the ordered tiers the teardown will walk.
func renderPlan(scopeName string, plan resource.TeardownPlan) {
	fmt.Printf("Teardown plan for scope %q (%d tiers):\n", scopeName, len(plan.Tiers))
	for i, tier := range plan.Tiers {
		names := make([]string, len(tier))
		for j, kind := range tier {
			names[j] = string(kind)
		}
		fmt.Printf("  %d. %s\n", i+1, strings.Join(names, ", "))
	}
}

// renderEvent streams one line of progress per engine event.
func renderEvent(ev engine.Event) {
	switch ev.Status {
	case "deleting":
		fmt.Printf("%s-%s %s %s\n", colorRed, colorReset, ev.Kind, ev.ID)
	case "waiting":
		fmt.Printf("%s…%s %s %s (waiting for deletion)\n", colorCyan, colorReset, ev.Kind, ev.ID)
	case "completed":
		fmt.Printf("%s %s %s: %s\n", outcomeGlyph(ev.Outcome), ev.Kind, ev.ID, coloredOutcome(ev.Outcome))
	}
}

// renderReport prints the final per-resource summary and totals.
func renderReport(report *engine.Report) {
	fmt.Println("\nTeardown summary:")
	for _, e := range report.Entries {
		line := fmt.Sprintf("  %-24s %-50s %s", e.Kind, e.ID, coloredOutcome(e.Outcome))
		if e.Reason != "" {
			line += "  (" + e.Reason + ")"
		}
		fmt.Println(line)
	}

	fmt.Printf("\n  %d deleted, %d not found, %d planned, %d timed out, %d failed.\n",
		report.Count(engine.OutcomeDeleted),
		report.Count(engine.OutcomeNotFound),
		report.Count(engine.OutcomePlanned),
		report.Count(engine.OutcomeTimedOut),
		report.Count(engine.OutcomeFailed))

	if n := report.Count(engine.OutcomeTimedOut); n > 0 {
		fmt.Printf("%s  %d deletion(s) still in progress on the provider side; re-run to verify.%s\n", colorYellow, n, colorReset)
	}
	if report.Count(engine.OutcomeFailed) > 0 {
		fmt.Printf("%s  Some resources could not be deleted; see entries above.%s\n", colorRed, colorReset)
	}
}

func coloredOutcome(o engine.Outcome) string {
	switch o {
	case engine.OutcomeDeleted:
		return colorGreen + string(o) + colorReset
	case engine.OutcomeFailed:
		return colorRed + string(o) + colorReset
	case engine.OutcomeTimedOut:
		return colorYellow + string(o) + colorReset
	case engine.OutcomePlanned:
		return colorCyan + string(o) + colorReset
	default:
		return string(o)
	}
}

func outcomeGlyph(o engine.Outcome) string {
	switch o {
	case engine.OutcomeDeleted:
		return colorGreen + "✓" + colorReset
	case engine.OutcomeFailed:
		return colorRed + "✗" + colorReset
	case engine.OutcomeTimedOut:
		return colorYellow + "!" + colorReset
	default:
		return " "
	}
}

// renderState colors a probed state for the status listing.
func renderState(state resource.State) string {
	switch state {
	case resource.StatePresent:
		return colorGreen + string(state) + colorReset
	case resource.StateDeleting:
		return colorYellow + string(state) + colorReset
	case resource.StateDeleted, resource.StateAbsent:
		return string(state)
	default:
		return colorCyan + string(state) + colorReset
	}
}
