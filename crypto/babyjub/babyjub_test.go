package babyjub

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	c := qt.New(t)
	sk := RandomPrivateKey()
	pk := PrivateToPublic(sk)

	packed := pk.Pack()
	unpacked, err := Unpack(packed)
	c.Assert(err, qt.IsNil)
	c.Assert(unpacked.X.Cmp(pk.X), qt.Equals, 0)
	c.Assert(unpacked.Y.Cmp(pk.Y), qt.Equals, 0)
}

func TestUnpackInvalidPoint(t *testing.T) {
	c := qt.New(t)
	var bogus [32]byte
	for i := range bogus {
		bogus[i] = 0xff
	}
	_, err := Unpack(bogus)
	c.Assert(err, qt.IsNotNil)
}

func TestECDHAgreement(t *testing.T) {
	c := qt.New(t)
	skA := RandomPrivateKey()
	skB := RandomPrivateKey()
	pkA := PrivateToPublic(skA)
	pkB := PrivateToPublic(skB)

	secretAB, err := ECDH(skA, pkB)
	c.Assert(err, qt.IsNil)
	secretBA, err := ECDH(skB, pkA)
	c.Assert(err, qt.IsNil)
	c.Assert(secretAB, qt.DeepEquals, secretBA)
}

func TestNewPrivateKeyFromSeedDeterministic(t *testing.T) {
	c := qt.New(t)
	seed := []byte("some deterministic seed material")
	a := NewPrivateKeyFromSeed(seed)
	b := NewPrivateKeyFromSeed(seed)
	c.Assert(a, qt.DeepEquals, b)
}
