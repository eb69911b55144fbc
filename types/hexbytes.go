package types

import (
	"encoding/hex"
	"fmt"
)

// HexBytes is a byte slice that marshals as a "0x"-prefixed hex string in
// JSON and as a raw byte string in CBOR. Within this module it is used for
// fixed-width left-padding (SetLength) in txbuilder's public-input hash;
// the other packages pass plain []byte and fixed-size byte arrays.
type HexBytes []byte

// String returns the "0x"-prefixed hex encoding of h.
func (h HexBytes) String() string {
	return "0x" + hex.EncodeToString(h)
}

// MarshalJSON implements json.Marshaler.
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", h.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid HexBytes json: %q", data)
	}
	s := string(data[1 : len(data)-1])
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid HexBytes hex: %w", err)
	}
	*h = b
	return nil
}

// SetLength returns a copy of h left-padded (or truncated from the left) to
// exactly n bytes, matching the "left-padded to declared width" convention
// used for on-chain calldata fields throughout this protocol.
func (h HexBytes) SetLength(n int) HexBytes {
	if len(h) == n {
		return h
	}
	out := make(HexBytes, n)
	if len(h) > n {
		copy(out, h[len(h)-n:])
		return out
	}
	copy(out[n-len(h):], h)
	return out
}
