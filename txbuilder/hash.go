package txbuilder

import (
	"crypto/sha256"
	"math/big"

	"github.com/shieldwallet/shieldwallet/types"
)

// pad32 left-pads (or truncates) b to exactly 32 bytes, the width every
// field fed into hashOfInputs is bound at.
func pad32(b []byte) []byte {
	return types.HexBytes(b).SetLength(32)
}

func padBigInt(x *big.Int) []byte {
	if x == nil {
		return make([]byte, 32)
	}
	return pad32(x.Bytes())
}

// HashOfInputs computes the single public input the circuit exposes: a
// SHA-256 digest of every publicly-bound field, reduced mod the SNARK
// prime, per §4.G. The prover adapter recomputes this from the verifier's
// side to confirm the proof was produced over the claimed public inputs.
func HashOfInputs(pub *PublicInputs) *big.Int {
	var buf []byte
	buf = append(buf, padBigInt(pub.AdaptIDHash)...)
	buf = append(buf, padBigInt(pub.DepositAmount)...)
	buf = append(buf, padBigInt(pub.WithdrawAmount)...)
	buf = append(buf, padBigInt(pub.OutputTokenField)...)
	buf = append(buf, padBigInt(pub.OutputEthAddress)...)
	buf = append(buf, padBigInt(new(big.Int).SetUint64(uint64(pub.TreeNumber)))...)
	buf = append(buf, padBigInt(pub.MerkleRoot)...)
	for _, n := range pub.Nullifiers {
		buf = append(buf, padBigInt(n)...)
	}
	for _, c := range pub.CommitmentsOut {
		buf = append(buf, padBigInt(c)...)
	}
	buf = append(buf, padBigInt(pub.CiphertextHash)...)

	sum := sha256.Sum256(buf)
	return new(big.Int).Mod(new(big.Int).SetBytes(sum[:]), types.SNARKPrime)
}

// adaptIDHash folds an AdaptID into a single field element.
func adaptIDHash(id AdaptID) *big.Int {
	sum := sha256.Sum256(append(append([]byte{}, id.Contract[:]...), id.Parameters[:]...))
	return new(big.Int).Mod(new(big.Int).SetBytes(sum[:]), types.SNARKPrime)
}
