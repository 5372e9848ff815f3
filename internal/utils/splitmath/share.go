package splitmath

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitShares holds the outcome of dividing an expense amount between the
// members who accepted it.
type SplitShares struct {
	// PerMember is the share each accepted non-payer member owes the payer,
	// truncated to two decimal places.
	PerMember decimal.Decimal
	// Residual is whatever truncation left over (amount - PerMember*accepted).
	// It is absorbed by the payer so that PerMember*accepted + Residual always
	// equals the original amount exactly.
	Residual decimal.Decimal
}

// EqualShares divides amount between accepted members using truncating
// division at cent precision. The residual cents are deterministically
// assigned to the payer: the payer's implicit own share is never recorded as
// a ledger edge, so no edge ever carries rounding noise.
func EqualShares(amount decimal.Decimal, accepted int) (SplitShares, error) {
	if accepted <= 0 {
		return SplitShares{}, fmt.Errorf("cannot split between %d accepted members", accepted)
	}
	if amount.IsNegative() {
		return SplitShares{}, fmt.Errorf("cannot split negative amount %s", amount)
	}

	n := decimal.NewFromInt(int64(accepted))
	share := amount.Div(n).Truncate(2)
	residual := amount.Sub(share.Mul(n))

	return SplitShares{PerMember: share, Residual: residual}, nil
}
