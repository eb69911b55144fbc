package address

import (
	"testing"

	"github.com/btcsuite/btcutil/bech32"
	qt "github.com/frankban/quicktest"

	"github.com/shieldwallet/shieldwallet/types"
)

func chainID(v uint32) *uint32 { return &v }

func TestEncodeDecodeRoundTripKnownChain(t *testing.T) {
	c := qt.New(t)
	var pubkey [32]byte
	pubkey[0] = 0xaa
	pubkey[31] = 0x01

	addr, err := Encode(pubkey, chainID(1))
	c.Assert(err, qt.IsNil)
	c.Assert(addr[:5], qt.Equals, "rgeth")

	gotPubkey, gotChain, err := Decode(addr)
	c.Assert(err, qt.IsNil)
	c.Assert(gotPubkey, qt.Equals, pubkey)
	c.Assert(*gotChain, qt.Equals, uint32(1))
}

func TestEncodeUnknownChainUsesAnyPrefix(t *testing.T) {
	c := qt.New(t)
	var pubkey [32]byte
	addr, err := Encode(pubkey, chainID(999999))
	c.Assert(err, qt.IsNil)
	c.Assert(addr[:5], qt.Equals, "rgany")

	_, gotChain, err := Decode(addr)
	c.Assert(err, qt.IsNil)
	c.Assert(gotChain, qt.IsNil)
}

func TestEncodeNilChainUsesAnyPrefix(t *testing.T) {
	c := qt.New(t)
	var pubkey [32]byte
	addr, err := Encode(pubkey, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(addr[:5], qt.Equals, "rgany")
}

func TestDecodeUnknownPrefixFails(t *testing.T) {
	c := qt.New(t)
	data := make([]byte, 33)
	data[0] = types.Version
	converted, err := bech32.ConvertBits(data, 8, 5, true)
	c.Assert(err, qt.IsNil)
	addr, err := bech32.Encode("rgunknown", converted)
	c.Assert(err, qt.IsNil)

	_, _, err = Decode(addr)
	c.Assert(err, qt.ErrorIs, types.ErrUnknownPrefix)
}

func TestDecodeWrongVersionFails(t *testing.T) {
	c := qt.New(t)
	data := make([]byte, 33)
	data[0] = types.Version + 1
	converted, err := bech32.ConvertBits(data, 8, 5, true)
	c.Assert(err, qt.IsNil)
	addr, err := bech32.Encode("rgeth", converted)
	c.Assert(err, qt.IsNil)

	_, _, err = Decode(addr)
	c.Assert(err, qt.ErrorIs, types.ErrWrongVersion)
}

func TestEncodeAllKnownPrefixes(t *testing.T) {
	c := qt.New(t)
	for id, hrp := range prefixes {
		id := id
		var pubkey [32]byte
		pubkey[0] = byte(id)
		addr, err := Encode(pubkey, &id)
		c.Assert(err, qt.IsNil)
		c.Assert(addr[:len(hrp)], qt.Equals, hrp)
	}
}
