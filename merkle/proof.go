package merkle

import (
	"fmt"
	"math/big"

	"github.com/shieldwallet/shieldwallet/crypto/field"
	"github.com/shieldwallet/shieldwallet/crypto/hash"
)

// ReconstructRoot recomputes a tree root from a leaf (key, value) and its
// sibling path, following arbo's leaf/node hashing convention: leaves hash
// as Poseidon(key, value, 1), internal nodes as Poseidon(left, right). It
// recomputes a root without needing direct access to the backing tree;
// txbuilder.Build does not call it.
func ReconstructRoot(pathElements [][]byte, pathIndices []int, key, value []byte) (*big.Int, error) {
	if len(pathElements) != len(pathIndices) {
		return nil, fmt.Errorf("merkle: mismatched path element/index lengths")
	}

	cur, err := hash.Poseidon(field.FromBytes(key), field.FromBytes(value), field.FromUint64(1))
	if err != nil {
		return nil, fmt.Errorf("merkle: reconstruct leaf hash: %w", err)
	}

	for i, sibling := range pathElements {
		s := field.FromBytes(sibling)
		var l, r field.Element
		if pathIndices[i] == 0 {
			l, r = cur, s
		} else {
			l, r = s, cur
		}
		cur, err = hash.Poseidon(l, r)
		if err != nil {
			return nil, fmt.Errorf("merkle: reconstruct level %d: %w", i, err)
		}
	}
	return cur.BigInt(), nil
}
