// Package election resolves multi-winner ranked-choice elections.
//
// Each round compares every pair of candidates over the weighted ballots.
// A ballot credits the candidate it prefers with w*(1+d*alpha) points,
// where d is the rank distance between the two (a candidate ranked against
// an absent opponent counts as distance 1). The round winner is the
// candidate that scores strictly more points than every other candidate.
// When no such candidate exists alpha doubles and the comparison repeats,
// until the ceiling is reached and the round is declared a tie.
//
// After a winner is found the ballots are reweighted: the winner is
// removed from every ranking and each residual ballot keeps
// w/(1+d*alpha) of its weight, d being how far down the ballot the winner
// was ranked, or the ballot length when it was not ranked at all.
// Single-candidate ballots carry no further preference and are dropped.
//
//	set := ballot.NewSet().
//		MustAdd(ballot.Ranking{"A", "B"}, 60).
//		MustAdd(ballot.Ranking{"B", "A"}, 40)
//	res, err := election.Run(set, election.DefaultConfig(1))
//
// The package does no I/O and keeps no state between calls.
package election
