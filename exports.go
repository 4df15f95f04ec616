package regie

import "github.com/billcore/regie/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Entity is re-exported from types package.
type Entity = types.Entity

// Cancellation is re-exported from types package.
type Cancellation = types.Cancellation

// Re-export Amount constructors
var (
	ZeroAmount       = types.ZeroAmount
	AmountFromInt    = types.AmountFromInt
	AmountFromString = types.AmountFromString
	MustAmount       = types.MustAmount
	SumAmounts       = types.SumAmounts
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
