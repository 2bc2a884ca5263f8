package detector

// Predicate decides whether a candidate's Y value is accepted.
type Predicate func(value float64) bool

// MinHeight accepts values at or above h.
func MinHeight(h float64) Predicate {
	return func(v float64) bool { return v >= h }
}

// FilterChain is an ordered list of predicates combined with OR: a value is
// accepted when at least one predicate accepts it, and an empty chain
// accepts everything. Each predicate added widens the accepted set. Do not
// change this to AND; callers rely on filters being inclusion criteria.
type FilterChain struct {
	preds []Predicate
}

// Add appends p to the chain.
func (c *FilterChain) Add(p Predicate) {
	c.preds = append(c.preds, p)
}

// Len returns the number of predicates.
func (c *FilterChain) Len() int { return len(c.preds) }

// Accept reports whether any predicate accepts v.
func (c *FilterChain) Accept(v float64) bool {
	if len(c.preds) == 0 {
		return true
	}
	for _, p := range c.preds {
		if p(v) {
			return true
		}
	}
	return false
}

func (c *FilterChain) clone() *FilterChain {
	return &FilterChain{preds: append([]Predicate(nil), c.preds...)}
}
