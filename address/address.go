// Package address implements the checksummed Bech32 address codec: a
// version byte followed by a packed Baby-Jubjub public key, HRP-tagged by
// chain ID. No pack repository implements Bech32 directly, but
// github.com/btcsuite/btcutil (already pulled in elsewhere in the retrieved
// corpus for base58 checksum encoding) ships bech32 as a sibling
// subpackage — the canonical Go Bech32 implementation.
package address

import (
	"fmt"

	"github.com/btcsuite/btcutil/bech32"

	"github.com/shieldwallet/shieldwallet/types"
)

// prefixes maps known chain IDs to their address HRP. Unknown or absent
// chain IDs encode/decode under "rgany".
var prefixes = map[uint32]string{
	1:   "rgeth",
	3:   "rgtestropsten",
	5:   "rgtestgoerli",
	56:  "rgbsc",
	137: "rgpoly",
}

const anyPrefix = "rgany"

func hrpForChainID(chainID *uint32) string {
	if chainID == nil {
		return anyPrefix
	}
	if hrp, ok := prefixes[*chainID]; ok {
		return hrp
	}
	return anyPrefix
}

func chainIDForHRP(hrp string) (*uint32, error) {
	if hrp == anyPrefix {
		return nil, nil
	}
	for id, p := range prefixes {
		if p == hrp {
			id := id
			return &id, nil
		}
	}
	return nil, fmt.Errorf("address: unrecognized prefix %q: %w", hrp, types.ErrUnknownPrefix)
}

// Encode returns the Bech32 address for pubkey, tagged with chainId's
// prefix (or "rgany" if chainId is nil or unrecognized).
func Encode(pubkey [32]byte, chainID *uint32) (string, error) {
	data := make([]byte, 1+32)
	data[0] = types.Version
	copy(data[1:], pubkey[:])

	converted, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("address: convert bits: %w", err)
	}
	return bech32.Encode(hrpForChainID(chainID), converted)
}

// Decode parses a Bech32 address, returning the packed pubkey and the
// chain ID implied by the prefix (nil for "rgany"). It fails
// ErrWrongVersion if the version byte doesn't match the current protocol
// version, and ErrUnknownPrefix if the HRP is neither known nor "rgany".
func Decode(addr string) ([32]byte, *uint32, error) {
	var pubkey [32]byte

	hrp, data5, err := bech32.Decode(addr)
	if err != nil {
		return pubkey, nil, fmt.Errorf("address: decode: %w", err)
	}
	chainID, err := chainIDForHRP(hrp)
	if err != nil {
		return pubkey, nil, err
	}

	data, err := bech32.ConvertBits(data5, 5, 8, false)
	if err != nil {
		return pubkey, nil, fmt.Errorf("address: convert bits: %w", err)
	}
	if len(data) != 1+32 {
		return pubkey, nil, fmt.Errorf("address: wrong payload length %d: %w", len(data), types.ErrMalformedNote)
	}
	if data[0] != types.Version {
		return pubkey, nil, fmt.Errorf("address: version byte %d: %w", data[0], types.ErrWrongVersion)
	}
	copy(pubkey[:], data[1:])
	return pubkey, chainID, nil
}
