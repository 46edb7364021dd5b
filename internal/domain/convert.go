package domain

import "math/big"

var bigTen = big.NewInt(10)

// RequiredTokenAmount converts a USD notional (8 fixed decimals) into the
// token quantity a party must deposit, given a price feed answer scaled by
// 10^priceDecimals and the token's own decimal precision.
//
// The USD figure is first rescaled to the feed's precision: multiplied by
// 10^(priceDecimals-8) when the feed carries 8 or more decimals, otherwise
// integer-divided by 10^(8-priceDecimals). The sub-8-decimal division
// truncates; that loss is an accepted edge case for coarse feeds. The
// rescaled figure is then multiplied by 10^tokenDecimals and divided by
// the price answer using ceiling division, so rounding always favors the
// receiving party: the recipient never gets less USD value than promised
// and the funding party overpays by at most one smallest token unit.
//
// Returns ErrInvalidPrice when the price answer is not strictly positive.
func RequiredTokenAmount(usd USD, price *big.Int, priceDecimals, tokenDecimals uint8) (*big.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	scaled := usd.BigInt()
	if priceDecimals >= USDDecimals {
		scaled.Mul(scaled, pow10(int64(priceDecimals-USDDecimals)))
	} else {
		scaled.Quo(scaled, pow10(int64(USDDecimals-priceDecimals)))
	}

	numerator := scaled.Mul(scaled, pow10(int64(tokenDecimals)))
	return ceilDiv(numerator, price), nil
}

// ceilDiv computes ceil(a / b) for b > 0 as (a + b - 1) / b.
func ceilDiv(a, b *big.Int) *big.Int {
	n := new(big.Int).Add(a, b)
	n.Sub(n, big.NewInt(1))
	return n.Quo(n, b)
}

func pow10(exp int64) *big.Int {
	return new(big.Int).Exp(bigTen, big.NewInt(exp), nil)
}
