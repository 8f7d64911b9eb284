package finance

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FEE CATALOG - Resolves charges from configured records
// =============================================================================

// Catalog resolves the base termly charge for a grade and the boarding
// surcharge. It is a leaf: it reads configuration, never mutates.
//
// Construct it over whatever Store view is current - engines build one over
// their in-transaction view so catalog reads see uncommitted batch state.
type Catalog struct {
	store Store
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

// TermFee returns the fee configured for (grade, term).
func (c *Catalog) TermFee(ctx context.Context, grade string, termID TermID) (Fee, error) {
	fee, err := c.store.GetFee(ctx, grade, termID)
	if err != nil {
		if IsNotFound(err) {
			return Fee{}, &FeeNotConfiguredError{Grade: grade, TermID: termID}
		}
		return Fee{}, err
	}
	return fee, nil
}

// AnyTermFee returns the first fee configured for the grade, regardless of
// term.
//
// This deliberately reproduces the production lookup used by balance
// initialization, which never scoped the fee to the current term. Which
// term's fee wins is whatever the store returns first - a likely defect in
// the original rules, kept visible here under an honest name rather than
// silently fixed. New callers should prefer TermFee.
func (c *Catalog) AnyTermFee(ctx context.Context, grade string) (Fee, error) {
	fee, err := c.store.FirstFeeForGrade(ctx, grade)
	if err != nil {
		if IsNotFound(err) {
			return Fee{}, &FeeNotConfiguredError{Grade: grade}
		}
		return Fee{}, err
	}
	return fee, nil
}

// BoardingSurcharge returns the extra charge for a boarding student in the
// given grade, or zero when none applies.
//
// The surcharge applies only to boarding students whose grade parses as a
// number below 5. Non-numeric grades ("baby class", "pp1", "pp2") sit below
// the threshold conceptually but are never surcharged under this rule -
// that asymmetry matches the production behavior and is locked in by tests.
func (c *Catalog) BoardingSurcharge(ctx context.Context, grade string, isBoarding bool) (decimal.Decimal, error) {
	if !isBoarding {
		return decimal.Zero, nil
	}
	n, ok := parseNumericGrade(grade)
	if !ok || n >= 5 {
		return decimal.Zero, nil
	}
	boarding, err := c.store.GetBoardingFee(ctx)
	if err != nil {
		if IsNotFound(err) {
			// No surcharge configured: boarding students board for free
			// rather than registration failing outright.
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return boarding.ExtraFee, nil
}

// parseNumericGrade parses grade tokens like "3". Tokens such as "pp1" or
// "baby class" report ok=false.
func parseNumericGrade(grade string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(grade))
	if err != nil {
		return 0, false
	}
	return n, true
}
