package election

import (
	"github.com/mchmarny/alphavote/pkg/ballot"
)

// Matrix is the full pairwise comparison table at one alpha.
// Points[i][j] holds the points candidate i scored against candidate j.
type Matrix struct {
	Candidates []string    `json:"candidates" yaml:"candidates"`
	Alpha      float64     `json:"alpha" yaml:"alpha"`
	Points     [][]float64 `json:"points" yaml:"points"`
	Wins       []int       `json:"wins" yaml:"wins"`
}

// NewMatrix compares every pair of candidates without short-circuiting.
func NewMatrix(set *ballot.Set, candidates []string, alpha float64) *Matrix {
	n := len(candidates)
	m := &Matrix{
		Candidates: candidates,
		Alpha:      alpha,
		Points:     make([][]float64, n),
		Wins:       make([]int, n),
	}
	for i := range m.Points {
		m.Points[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p := Compare(set, candidates[i], candidates[j], alpha)
			m.Points[i][j] = p.PointsA
			m.Points[j][i] = p.PointsB
			switch p.Winner() {
			case p.A:
				m.Wins[i]++
			case p.B:
				m.Wins[j]++
			}
		}
	}
	return m
}

// Leader returns the candidate that beat every other one, if any.
func (m *Matrix) Leader() (string, bool) {
	for i, w := range m.Wins {
		if w == len(m.Candidates)-1 {
			return m.Candidates[i], true
		}
	}
	return "", false
}

// Matrices replays the rounds of res over set and returns the pairwise
// table of each round at the alpha the round ended with.
func Matrices(set *ballot.Set, res *Result) []*Matrix {
	if set == nil || res == nil {
		return nil
	}
	list := make([]*Matrix, 0, len(res.Rounds))
	cur := set
	for i, rd := range res.Rounds {
		list = append(list, NewMatrix(cur, rd.Candidates, rd.Alpha))
		if rd.Winner == "" || i == len(res.Rounds)-1 {
			break
		}
		cur = Reweight(cur, rd.Winner, rd.Alpha)
	}
	return list
}
