package election

import (
	"log/slog"
	"math"

	"github.com/mchmarny/alphavote/pkg/ballot"
)

const (
	// DefaultAlpha is the distance sensitivity every round starts with.
	DefaultAlpha = 0.01

	// DefaultEscalations is the number of times alpha may double before a
	// round is declared a tie under the default ceiling.
	DefaultEscalations = 15

	// DefaultMaxAlpha is the default alpha ceiling.
	DefaultMaxAlpha = DefaultAlpha * (1 << DefaultEscalations)
)

// Infinity used as a ceiling lets alpha double until it overflows.
var Infinity = math.Inf(1)

// Outcome is the result of resolving one round.
type Outcome struct {
	Winner string `json:"winner,omitempty" yaml:"winner,omitempty"`
	Tie    bool   `json:"tie" yaml:"tie"`
	// Alpha of the last attempt; on success the alpha that produced the winner.
	Alpha       float64 `json:"alpha" yaml:"alpha"`
	Attempts    int     `json:"attempts" yaml:"attempts"`
	Comparisons int     `json:"comparisons" yaml:"comparisons"`
}

// Pair holds the weighted points of one head-to-head comparison.
type Pair struct {
	A       string  `json:"a" yaml:"a"`
	B       string  `json:"b" yaml:"b"`
	PointsA float64 `json:"points_a" yaml:"pointsA"`
	PointsB float64 `json:"points_b" yaml:"pointsB"`
}

// Winner returns the candidate with strictly more points, empty on a tie.
func (p Pair) Winner() string {
	switch {
	case p.PointsA > p.PointsB:
		return p.A
	case p.PointsB > p.PointsA:
		return p.B
	default:
		return ""
	}
}

// Margin is PointsA minus PointsB.
func (p Pair) Margin() float64 {
	return p.PointsA - p.PointsB
}

// Compare scores a against b at the given alpha. A ballot ranking only one
// of the two counts as distance 1 for that candidate; a ballot ranking both
// credits the preferred one by their distance.
func Compare(set *ballot.Set, a, b string, alpha float64) Pair {
	p := Pair{A: a, B: b}
	for _, blt := range set.Ballots() {
		pa, okA := blt.Position(a)
		pb, okB := blt.Position(b)
		w := blt.Weight()

		switch {
		case !okA && !okB:
			continue
		case okA && !okB:
			p.PointsA += w * (1 + alpha)
		case !okA && okB:
			p.PointsB += w * (1 + alpha)
		default:
			d := pa - pb
			if d < 0 {
				p.PointsA += w * (1 + float64(-d)*alpha)
			} else {
				p.PointsB += w * (1 + float64(d)*alpha)
			}
		}
	}
	return p
}

// Resolve finds the candidate that beats every other candidate head to
// head. When no candidate does, alpha doubles and the comparison repeats.
// Attempts stop, with a tie, once alpha would pass maxAlpha, overflows, or
// can no longer grow.
func Resolve(set *ballot.Set, candidates []string, alpha, maxAlpha float64) Outcome {
	out := Outcome{Alpha: alpha}

	switch len(candidates) {
	case 0:
		out.Tie = true
		return out
	case 1:
		out.Winner = candidates[0]
		out.Attempts = 1
		return out
	}

	for {
		if math.IsInf(alpha, 1) || alpha > maxAlpha {
			slog.Debug("alpha ceiling reached", "alpha", alpha, "max", maxAlpha)
			out.Tie = true
			return out
		}

		out.Alpha = alpha
		out.Attempts++
		slog.Debug("resolving", "alpha", alpha, "attempt", out.Attempts, "candidates", len(candidates))

		winner, n := attempt(set, candidates, alpha)
		out.Comparisons += n
		if winner != "" {
			out.Winner = winner
			slog.Debug("winner found", "winner", winner, "alpha", alpha)
			return out
		}

		next := alpha * 2
		if next <= alpha {
			slog.Debug("alpha cannot escalate", "alpha", alpha)
			out.Tie = true
			return out
		}
		alpha = next
	}
}

// attempt runs one round robin at a fixed alpha and returns the candidate
// that won all its pairs, if any, with the number of pairs evaluated.
func attempt(set *ballot.Set, candidates []string, alpha float64) (string, int) {
	target := len(candidates) - 1
	wins := make(map[string]int, len(candidates))
	n := 0

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			p := Compare(set, candidates[i], candidates[j], alpha)
			n++

			w := p.Winner()
			if w == "" {
				slog.Debug("pair tied", "a", p.A, "b", p.B, "points", p.PointsA)
				continue
			}
			slog.Debug("pair decided", "a", p.A, "b", p.B, "points_a", p.PointsA, "points_b", p.PointsB, "winner", w)

			wins[w]++
			if wins[w] == target {
				return w, n
			}
		}
	}
	return "", n
}

// Pairwise returns the default Strategy, bounded by maxAlpha.
func Pairwise(maxAlpha float64) Strategy {
	return func(set *ballot.Set, candidates []string, alpha float64) Outcome {
		return Resolve(set, candidates, alpha, maxAlpha)
	}
}
