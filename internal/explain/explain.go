// Package explain renders natural-language rationales and counterfactual
// suggestions from feature importances. Explanations are framed as observed
// behavioral patterns, never as medical causes.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quietsignal/phenoscope/internal/model"
)

// Fixed messages for the lowest severity tier and for empty feature lists.
const (
	stableStatus = "Status: **Stable Patterns**\nDigital behaviors appear consistent with a balanced routine."

	maintainTip = "Maintaining current digital habits is recommended."
	genericTip  = "Consider stabilizing sleep and screen schedules."
)

// topExplained is how many features an explanation reports.
const topExplained = 2

// topCandidates is how many features the counterfactual search examines.
const topCandidates = 3

// Explanation builds a rationale for a prediction. The lowest tier always
// yields the fixed stable-status message; otherwise the two most important
// features are reported as elevated or reduced based on the sign of their
// standardized value.
func Explanation(importances, scaledInput []float64, featureNames []string, label model.RiskLabel, confidence float64) string {
	if label == model.RiskLow {
		return stableStatus
	}

	ranked := rankByImportance(importances)
	if len(ranked) > topExplained {
		ranked = ranked[:topExplained]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: **%s** (Confidence: %.0f%%)\n", label, confidence*100)
	b.WriteString("The system detected behavioral deviations often associated with stress or fatigue:\n")
	for _, idx := range ranked {
		direction := "reduced"
		if scaledInput[idx] > 0 {
			direction = "elevated"
		}
		fmt.Fprintf(&b, "- **%s** appears %s.\n", displayName(featureNames[idx]), direction)
	}
	return b.String()
}

// Counterfactual suggests a single-feature change hypothesized to lower the
// predicted tier. It walks the top candidates by importance, picks a semantic
// direction (diversity-type signals should increase, everything else
// decrease), perturbs a private copy of the input by one unit in that
// direction, and returns a tip for the first candidate. The perturbed
// what-if vector is not re-scored against the model, so the suggestion is a
// heuristic, not a verified counterfactual.
func Counterfactual(importances, rawInput []float64, featureNames []string, label model.RiskLabel) string {
	if label == model.RiskLow {
		return maintainTip
	}

	ranked := rankByImportance(importances)
	if len(ranked) > topCandidates {
		ranked = ranked[:topCandidates]
	}

	for _, idx := range ranked {
		direction := -1.0
		if strings.Contains(featureNames[idx], "diversity") {
			direction = 1.0
		}

		whatIf := append([]float64(nil), rawInput...)
		whatIf[idx] += direction

		clean := titleCase(featureNames[idx])
		if direction < 0 {
			return fmt.Sprintf("Tip: Reducing **%s** may help stabilize your digital phenotype.", clean)
		}
		return fmt.Sprintf("Tip: Increasing **%s** (e.g., using more varied apps) may reflect better engagement.", clean)
	}
	return genericTip
}

// rankByImportance returns feature indices sorted by descending importance,
// ties keeping column order.
func rankByImportance(importances []float64) []int {
	ranked := make([]int, len(importances))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return importances[ranked[a]] > importances[ranked[b]]
	})
	return ranked
}

// displayName renders a feature name for humans: underscores out, title
// case, common prefixes and suffixes stripped.
func displayName(name string) string {
	clean := titleCase(name)
	clean = strings.TrimPrefix(clean, "Avg Daily ")
	clean = strings.TrimSuffix(clean, " Score")
	return clean
}

func titleCase(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
