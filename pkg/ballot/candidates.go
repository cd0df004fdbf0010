package ballot

import (
	"github.com/emirpasic/gods/sets/linkedhashset"
)

// Candidates is the insertion-ordered set of candidate ids of a Set.
type Candidates struct {
	set *linkedhashset.Set
}

func newCandidates() *Candidates {
	return &Candidates{set: linkedhashset.New()}
}

// NewCandidates builds a candidate set from ids, ignoring repeats.
func NewCandidates(ids ...string) *Candidates {
	c := newCandidates()
	for _, id := range ids {
		c.add(id)
	}
	return c
}

func (c *Candidates) add(id string) {
	c.set.Add(id)
}

func (c *Candidates) Len() int {
	return c.set.Size()
}

func (c *Candidates) Contains(id string) bool {
	return c.set.Contains(id)
}

// List returns the ids in first-appearance order.
func (c *Candidates) List() []string {
	vals := c.set.Values()
	list := make([]string, 0, len(vals))
	for _, v := range vals {
		list = append(list, v.(string))
	}
	return list
}
