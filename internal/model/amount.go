package model

import "errors"

// Amount is a quantity of rangs in minor units. Ledger entries carry it
// signed: positive for earns, negative for spends.
type Amount int64

var ErrNegativeAmount = errors.New("amount must be positive")

// NewAmount validates a caller-supplied quantity, e.g. an item cost.
func NewAmount(v int64) (Amount, error) {
	if v < 0 {
		return 0, ErrNegativeAmount
	}
	return Amount(v), nil
}

func (a Amount) Int64() int64 {
	return int64(a)
}

// Neg returns the spend-side representation of the amount.
func (a Amount) Neg() Amount {
	return -a
}
