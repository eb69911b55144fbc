// Package field provides SNARK-scalar-field arithmetic for every
// circuit-facing quantity in this wallet (amounts, randoms, hashes, tree
// positions). It generalizes the teacher's ad hoc "reduce mod the BN254
// base field" helper (util.BigToFF, crypto/ecc.BigToFF) into a dedicated
// type backed by gnark-crypto's field implementation instead of a bare
// big.Int mod.
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Element is an integer in [0, p) where p is the BN254 scalar field
// (the SNARK prime). All circuit-facing quantities are reduced mod p
// before use.
type Element struct {
	v fr.Element
}

// FromBigInt reduces n mod p and returns the corresponding Element.
func FromBigInt(n *big.Int) Element {
	var e Element
	e.v.SetBigInt(n)
	return e
}

// FromBytes interprets b as a big-endian integer, reduces it mod p.
func FromBytes(b []byte) Element {
	return FromBigInt(new(big.Int).SetBytes(b))
}

// FromUint64 reduces n mod p (trivially, since p > 2^64).
func FromUint64(n uint64) Element {
	var e Element
	e.v.SetUint64(n)
	return e
}

// BigInt returns the canonical [0, p) big.Int representation of e.
func (e Element) BigInt() *big.Int {
	var z big.Int
	e.v.BigInt(&z)
	return &z
}

// Bytes32 returns the 32-byte big-endian encoding of e, left-padded.
func (e Element) Bytes32() [32]byte {
	return e.v.Bytes()
}

// Add returns e + o mod p.
func (e Element) Add(o Element) Element {
	var r Element
	r.v.Add(&e.v, &o.v)
	return r
}

// Sub returns e - o mod p.
func (e Element) Sub(o Element) Element {
	var r Element
	r.v.Sub(&e.v, &o.v)
	return r
}

// Mul returns e * o mod p.
func (e Element) Mul(o Element) Element {
	var r Element
	r.v.Mul(&e.v, &o.v)
	return r
}

// Equal reports whether e and o represent the same field element.
func (e Element) Equal(o Element) bool {
	return e.v.Equal(&o.v)
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool {
	return e.v.IsZero()
}

// String returns the base-10 representation of e.
func (e Element) String() string {
	return e.BigInt().String()
}

// Modulus returns the SNARK scalar-field prime p.
func Modulus() *big.Int {
	m := fr.Modulus()
	return new(big.Int).Set(m)
}
