// Package babyjub wraps github.com/iden3/go-iden3-crypto/babyjub directly,
// the way the teacher's own babyjub/elgamal_bbj.go and
// circuits/circom/inputs.go (GenerateEncryptionTestKey) call it, rather than
// through the teacher's abstract crypto/ecc.Point curve-backend interface.
// That interface exists so the voting circuits can swap curve backends per
// gadget; this wallet only ever needs Baby-Jubjub, so the direct call is the
// idiomatic simplification.
package babyjub

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	ijub "github.com/iden3/go-iden3-crypto/babyjub"

	"github.com/shieldwallet/shieldwallet/crypto/field"
	"github.com/shieldwallet/shieldwallet/types"
)

// PrivateKey is a 32-byte field scalar.
type PrivateKey [32]byte

// PublicKey is an unpacked Baby-Jubjub point.
type PublicKey struct {
	X *big.Int
	Y *big.Int
}

// NewPrivateKeyFromSeed derives a private key scalar from arbitrary seed
// material as sha256(seed) mod p, per spec.md §3.
func NewPrivateKeyFromSeed(seed []byte) PrivateKey {
	sum := sha256.Sum256(seed)
	return PrivateKey(field.FromBytes(sum[:]).Bytes32())
}

// PrivateToPublic derives the unpacked public key point for sk.
func PrivateToPublic(sk PrivateKey) PublicKey {
	var isk ijub.PrivateKey
	copy(isk[:], sk[:])
	pub := isk.Public()
	return PublicKey{X: pub.X, Y: pub.Y}
}

// Pack encodes pk as a 32-byte value: the y coordinate with the sign of x
// folded into the high bit.
func (pk PublicKey) Pack() [32]byte {
	p := &ijub.Point{X: pk.X, Y: pk.Y}
	return p.Compress()
}

// Unpack decodes a packed public key, failing ErrInvalidPoint if the
// encoded y is not on-curve.
func Unpack(packed [32]byte) (PublicKey, error) {
	p, err := new(ijub.Point).Decompress(packed)
	if err != nil {
		return PublicKey{}, fmt.Errorf("unpack babyjub point: %w", types.ErrInvalidPoint)
	}
	return PublicKey{X: p.X, Y: p.Y}, nil
}

// ECDH computes the 32-byte shared secret hash_of(sk_a * pk_b), suitable
// for direct use as an AES-256 key, per spec.md §4.A.
func ECDH(skA PrivateKey, pkB PublicKey) ([32]byte, error) {
	var isk ijub.PrivateKey
	copy(isk[:], skA[:])

	scalar := isk.Scalar().BigInt()
	base := &ijub.Point{X: pkB.X, Y: pkB.Y}
	shared := ijub.NewPoint().Mul(scalar, base)

	buf := shared.Compress()
	sum := sha256.Sum256(buf[:])
	return sum, nil
}

// RandomPrivateKey generates a fresh random scalar, used for dummy notes
// and per-output sender ephemeral keys.
func RandomPrivateKey() PrivateKey {
	isk := ijub.NewRandPrivKey()
	var out PrivateKey
	copy(out[:], isk[:])
	return out
}
