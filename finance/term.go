package finance

// =============================================================================
// TERM - The time boundary for student balances
// =============================================================================

// Term is one school term. Terms are totally ordered by date and must not
// overlap for rollover to be well-defined.
type Term struct {
	ID    TermID
	Name  string
	Start Date
	End   Date
}

// Contains reports whether the date falls within [Start, End].
func (t Term) Contains(d Date) bool {
	return d.AfterOrEqual(t.Start) && d.BeforeOrEqual(t.End)
}

func (t Term) String() string {
	return t.Name + " [" + t.Start.String() + ", " + t.End.String() + "]"
}

// =============================================================================
// TERM RESOLUTION - Which term ended, which begins
// =============================================================================
// Rollover runs in the gap between terms: the current term is the latest one
// already over, the next term is the earliest one yet to start. Both stores
// and tests share these so the two selection rules live in exactly one place.

// CurrentTermOf returns the most recent term whose end date is strictly
// before asOf, or false if no term has ended yet.
func CurrentTermOf(terms []Term, asOf Date) (Term, bool) {
	var best Term
	found := false
	for _, t := range terms {
		if !t.End.Before(asOf) {
			continue
		}
		if !found || t.End.After(best.End) {
			best = t
			found = true
		}
	}
	return best, found
}

// NextTermOf returns the earliest term whose start date is strictly after
// asOf, or false if none is configured.
func NextTermOf(terms []Term, asOf Date) (Term, bool) {
	var best Term
	found := false
	for _, t := range terms {
		if !t.Start.After(asOf) {
			continue
		}
		if !found || t.Start.Before(best.Start) {
			best = t
			found = true
		}
	}
	return best, found
}
