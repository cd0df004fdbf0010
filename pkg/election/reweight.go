package election

import (
	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/pkg/errors"
)

// Reweight removes the winner from every ballot and returns the residual
// Set. Each residual weight is divided by 1 + d*alpha, where d is the
// winner's position on the ballot, or the ballot length when the ballot did
// not rank the winner. Single-candidate ballots are consumed. The input Set
// is not modified.
func Reweight(set *ballot.Set, winner string, alpha float64) *ballot.Set {
	next := ballot.NewSet()
	for _, b := range set.Ballots() {
		if b.Len() <= 1 {
			continue
		}

		d, ok := b.Position(winner)
		if !ok {
			d = b.Len()
		}

		r := b.Ranking().Without(winner)
		if err := next.Add(r, b.Weight()/(1+float64(d)*alpha)); err != nil {
			// residual rankings of a valid Set are always valid
			panic(errors.Wrapf(err, "reweighting ballot [%s]", r))
		}
	}
	return next
}
