package pricing

import (
	"errors"
	"math"
)

// Stripe's standard card fee: 2.9% + 30 cents, deducted from every charge.
const (
	DefaultFeePercent = 0.029
	DefaultFeeFixed   = 30
)

var ErrNonPositiveAmount = errors.New("net amount must be positive")

// GrossUp returns the smallest amount, in minor currency units, that still
// nets netAmount to the merchant after the processor deducts its percentage
// plus fixed fee. The fee is passed on to the payer.
func GrossUp(netAmount int64) (int64, error) {
	return GrossUpWith(netAmount, DefaultFeePercent, DefaultFeeFixed)
}

// GrossUpWith is GrossUp with explicit fee terms. Uses ceiling so fractional
// cents always round in the merchant's favor.
func GrossUpWith(netAmount int64, feePercent float64, feeFixed int64) (int64, error) {
	if netAmount <= 0 {
		return 0, ErrNonPositiveAmount
	}
	return int64(math.Ceil(float64(netAmount+feeFixed) / (1 - feePercent))), nil
}
