package field

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFromBigIntReducesModP(t *testing.T) {
	c := qt.New(t)
	over := new(big.Int).Add(Modulus(), big.NewInt(5))
	e := FromBigInt(over)
	c.Assert(e.BigInt().Cmp(big.NewInt(5)), qt.Equals, 0)
}

func TestAddSubRoundTrip(t *testing.T) {
	c := qt.New(t)
	a := FromUint64(10)
	b := FromUint64(3)
	sum := a.Add(b)
	c.Assert(sum.Sub(b).Equal(a), qt.IsTrue)
}

func TestBytes32RoundTrip(t *testing.T) {
	c := qt.New(t)
	a := FromUint64(123456789)
	buf := a.Bytes32()
	b := FromBytes(buf[:])
	c.Assert(b.Equal(a), qt.IsTrue)
}

func TestEqualAndZero(t *testing.T) {
	c := qt.New(t)
	z := FromUint64(0)
	c.Assert(z.IsZero(), qt.IsTrue)
	nz := FromUint64(1)
	c.Assert(nz.IsZero(), qt.IsFalse)
	c.Assert(z.Equal(nz), qt.IsFalse)
}
