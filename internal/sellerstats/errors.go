package sellerstats

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the dataset or options cannot be processed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownSeller indicates a purchase record references a seller that does not exist.
	ErrUnknownSeller = errors.New("unknown seller")
	// ErrUnknownProduct indicates a purchase item references a SKU that does not exist.
	ErrUnknownProduct = errors.New("unknown product")
)

// LookupKind identifies which index a failed lookup was made against.
type LookupKind string

const (
	LookupSeller  LookupKind = "seller"
	LookupProduct LookupKind = "product"
)

// LookupError reports a dangling reference found while aggregating receipts.
// Item is -1 for seller lookups.
type LookupError struct {
	Kind   LookupKind
	Key    string
	Record int
	Item   int
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind == LookupSeller {
		return fmt.Sprintf("purchase record %d: unknown seller %q", e.Record, e.Key)
	}
	return fmt.Sprintf("purchase record %d item %d: unknown product %q", e.Record, e.Item, e.Key)
}

// Is lets errors.Is match the lookup error against ErrUnknownSeller or ErrUnknownProduct.
func (e *LookupError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrUnknownSeller:
		return e.Kind == LookupSeller
	case ErrUnknownProduct:
		return e.Kind == LookupProduct
	}
	return false
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
