package config

import "github.com/shieldwallet/shieldwallet/types"

// Wallet bundles the tunables a wallet instance needs beyond the fixed
// protocol constants in the types package, following
// circuit_artifacts.go's convention of plain named constants/values over
// a CLI or env-parsing layer.
type Wallet struct {
	// GapLimit is how many consecutive unused addresses the scanner
	// derives ahead of the last used one before stopping.
	GapLimit uint32
	// ScanChunkSize is the number of blocks fetched per historical
	// replay window.
	ScanChunkSize uint64
	// MaxScanRetries is the number of fetch attempts per replay chunk,
	// the first try included, before the scan gives up.
	MaxScanRetries int
	// DerivationRoot records a BIP-32 root path. The keys package does not
	// read it: keys.HDWallet always derives under
	// types.DefaultDerivationRoot.
	DerivationRoot string
}

// DefaultWallet returns the spec-mandated defaults.
func DefaultWallet() Wallet {
	return Wallet{
		GapLimit:       types.DefaultGapLimit,
		ScanChunkSize:  types.ScanChunkSize,
		MaxScanRetries: types.MaxScanRetries,
		DerivationRoot: types.DefaultDerivationRoot,
	}
}
