// Package hash provides the off-circuit (SHA-256) and in-circuit (Poseidon)
// hash functions this wallet uses for commitments, nullifiers, and
// public-input binding. Poseidon chunking follows the teacher's
// crypto/hash/poseidon.MultiPoseidon pattern of batching inputs through
// iden3's poseidon.Hash, which itself caps the arity it accepts per call.
package hash

import (
	"crypto/sha256"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/shieldwallet/shieldwallet/crypto/field"
)

// maxPoseidonArity is the maximum number of field elements go-iden3-crypto's
// poseidon.Hash accepts in a single call.
const maxPoseidonArity = 16

// SHA256ModP hashes data with SHA-256 and reduces the digest mod the SNARK
// prime, so it can be used directly as a field element.
func SHA256ModP(data []byte) field.Element {
	sum := sha256.Sum256(data)
	return field.FromBytes(sum[:])
}

// Poseidon hashes a slice of field elements with the Poseidon permutation,
// chunking through multiple calls (each re-hashed together) when the input
// exceeds the underlying library's per-call arity. Deterministic, total.
func Poseidon(inputs ...field.Element) (field.Element, error) {
	if len(inputs) == 0 {
		return field.Element{}, nil
	}
	ins := make([]*big.Int, len(inputs))
	for i, e := range inputs {
		ins[i] = e.BigInt()
	}
	if len(ins) <= maxPoseidonArity {
		h, err := poseidon.Hash(ins)
		if err != nil {
			return field.Element{}, err
		}
		return field.FromBigInt(h), nil
	}
	acc, err := poseidon.Hash(ins[:maxPoseidonArity])
	if err != nil {
		return field.Element{}, err
	}
	for i := maxPoseidonArity; i < len(ins); i += maxPoseidonArity - 1 {
		end := i + maxPoseidonArity - 1
		if end > len(ins) {
			end = len(ins)
		}
		chunk := append([]*big.Int{acc}, ins[i:end]...)
		acc, err = poseidon.Hash(chunk)
		if err != nil {
			return field.Element{}, err
		}
	}
	return field.FromBigInt(acc), nil
}
