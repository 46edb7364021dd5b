package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// USDDecimals is the fixed-point scale of USD notionals: every USD value
// is an integer number of 10^-8 dollars.
const USDDecimals = 8

// USD is a USD amount with 8 fractional decimal digits ($1.00 == 100000000).
type USD int64

// ParseUSD converts a decimal dollar string (e.g. "20", "19.99") into a
// USD fixed-point value. It rejects values with more than 8 fractional
// digits rather than silently rounding.
func ParseUSD(s string) (USD, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid USD amount %q: %w", s, err)
	}
	if -d.Exponent() > USDDecimals {
		return 0, fmt.Errorf("USD amount %q exceeds %d decimal places", s, USDDecimals)
	}
	scaled := d.Shift(USDDecimals)
	if !scaled.IsInteger() || !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("USD amount %q out of range", s)
	}
	return USD(scaled.IntPart()), nil
}

// String renders the amount as a plain dollar figure, e.g. "20" or "19.99".
func (u USD) String() string {
	return decimal.New(int64(u), -USDDecimals).String()
}

// BigInt returns the raw fixed-point integer as a big.Int for use in
// conversion arithmetic.
func (u USD) BigInt() *big.Int {
	return big.NewInt(int64(u))
}
