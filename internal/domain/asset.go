package domain

// Asset identifies a transferable asset on the ledger. This is strictly
// identity metadata — balances live in the ledger, not here.
type Asset struct {
	Symbol   string
	Decimals uint8
}

// AssetPair describes the two sides of every deal: the wrapped form of
// the volatile collateral (with its native counterpart, for the
// wrap-on-deposit and unwrap-at-settlement paths) and the USD-pegged
// stable asset.
type AssetPair struct {
	Collateral       Asset // wrapped form held in escrow
	CollateralNative Asset // native form wrapped on deposit / unwrapped on request
	Stable           Asset
}
