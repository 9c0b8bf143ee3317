package lineitem

import (
	"errors"
	"fmt"
)

// ErrRejected wraps every rejection reason returned by Result.Err.
var ErrRejected = errors.New("line item change rejected")

var (
	ErrNonPositiveDelta       = errors.New("quantity delta must be positive")
	ErrInsufficientQuantity   = errors.New("decrease would leave no quantity on the line")
	ErrNegativePrice          = errors.New("unit price must not be negative")
	ErrPriceLocked            = errors.New("unit price is fixed for this line")
	ErrIncomplete             = errors.New("quantity and unit price are required to compute a subtotal")
	ErrNonPositiveQuantity    = errors.New("quantity must be positive")
	ErrQuantityOverflow       = errors.New("quantity exceeds the maximum a line can hold")
	ErrProductRequired        = errors.New("product is required")
	ErrUnsupportedPricePolicy = errors.New("operation not supported by the line's price policy")
)

// Result reports whether a mutation was applied. A rejected mutation leaves
// the line untouched.
type Result struct {
	reason error
}

func Accept() Result {
	return Result{}
}

func Reject(reason error) Result {
	return Result{reason: reason}
}

func (r Result) Applied() bool {
	return r.reason == nil
}

// Reason is nil for applied results.
func (r Result) Reason() error {
	return r.reason
}

// Err is nil for applied results and wraps ErrRejected and the reason otherwise.
func (r Result) Err() error {
	if r.reason == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRejected, r.reason)
}

func (r Result) String() string {
	if r.reason == nil {
		return "applied"
	}
	return "rejected: " + r.reason.Error()
}
