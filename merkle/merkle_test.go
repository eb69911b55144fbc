package merkle

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/shieldwallet/shieldwallet/crypto/field"
	"github.com/shieldwallet/shieldwallet/crypto/hash"
)

func leaf(b byte) []byte {
	v := make([]byte, 32)
	v[31] = b
	return v
}

func TestAppendChangesRoot(t *testing.T) {
	c := qt.New(t)
	m := NewMirror(metadb.NewTest(t))

	r0, err := m.Root(1, 0)
	c.Assert(err, qt.IsNil)

	err = m.Append(1, 0, [][]byte{leaf(1), leaf(2)})
	c.Assert(err, qt.IsNil)

	r1, err := m.Root(1, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(r1.Cmp(r0), qt.Not(qt.Equals), 0)
}

func TestAppendIsDeterministic(t *testing.T) {
	c := qt.New(t)
	m1 := NewMirror(metadb.NewTest(t))
	m2 := NewMirror(metadb.NewTest(t))

	for _, m := range []*Mirror{m1, m2} {
		err := m.Append(1, 0, [][]byte{leaf(1), leaf(2), leaf(3)})
		c.Assert(err, qt.IsNil)
	}
	r1, err := m1.Root(1, 0)
	c.Assert(err, qt.IsNil)
	r2, err := m2.Root(1, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(r1.Cmp(r2), qt.Equals, 0)
}

func TestTreesAreIndependentPerKey(t *testing.T) {
	c := qt.New(t)
	m := NewMirror(metadb.NewTest(t))

	c.Assert(m.Append(1, 0, [][]byte{leaf(1)}), qt.IsNil)
	c.Assert(m.Append(2, 0, [][]byte{leaf(1), leaf(2)}), qt.IsNil)
	c.Assert(m.Append(1, 1, [][]byte{leaf(9)}), qt.IsNil)

	r10, err := m.Root(1, 0)
	c.Assert(err, qt.IsNil)
	r20, err := m.Root(2, 0)
	c.Assert(err, qt.IsNil)
	r11, err := m.Root(1, 1)
	c.Assert(err, qt.IsNil)

	c.Assert(r10.Cmp(r20), qt.Not(qt.Equals), 0)
	c.Assert(r10.Cmp(r11), qt.Not(qt.Equals), 0)
}

func TestKnownRootRing(t *testing.T) {
	c := qt.New(t)
	m := NewMirror(metadb.NewTest(t))

	roots := make([]*big.Int, 0, 3)
	for i := 0; i < 3; i++ {
		err := m.Append(1, 0, [][]byte{leaf(byte(i))})
		c.Assert(err, qt.IsNil)
		r, err := m.Root(1, 0)
		c.Assert(err, qt.IsNil)
		roots = append(roots, r)
	}

	for _, r := range roots {
		known, err := m.KnownRoot(1, 0, r)
		c.Assert(err, qt.IsNil)
		c.Assert(known, qt.IsTrue)
	}

	bogus := big.NewInt(123456789)
	known, err := m.KnownRoot(1, 0, bogus)
	c.Assert(err, qt.IsNil)
	c.Assert(known, qt.IsFalse)
}

func TestGetProofHasExpectedShape(t *testing.T) {
	c := qt.New(t)
	m := NewMirror(metadb.NewTest(t))

	leaves := [][]byte{leaf(1), leaf(2), leaf(3), leaf(4)}
	c.Assert(m.Append(1, 0, leaves), qt.IsNil)

	for pos := range leaves {
		elements, indices, err := m.GetProof(1, 0, uint64(pos))
		c.Assert(err, qt.IsNil)
		c.Assert(elements, qt.HasLen, 16)
		c.Assert(indices, qt.HasLen, 16)
		for _, idx := range indices {
			c.Assert(idx == 0 || idx == 1, qt.IsTrue)
		}
	}
}

// ReconstructRoot is a standalone reimplementation of the tree's hashing
// convention; nothing outside this package calls it. It is tested here for its own internal consistency rather than against the
// live tree, since the exact arbo hashing convention it mirrors isn't
// independently verifiable without running the backing library.
func TestReconstructRootDeterministic(t *testing.T) {
	c := qt.New(t)
	elements := make([][]byte, 16)
	indices := make([]int, 16)
	for i := range elements {
		elements[i] = leaf(byte(i + 1))
	}
	key := positionKey(0)
	val := leaf(9)

	r1, err := ReconstructRoot(elements, indices, key, val)
	c.Assert(err, qt.IsNil)
	r2, err := ReconstructRoot(elements, indices, key, val)
	c.Assert(err, qt.IsNil)
	c.Assert(r1.Cmp(r2), qt.Equals, 0)

	indices[0] = 1
	r3, err := ReconstructRoot(elements, indices, key, val)
	c.Assert(err, qt.IsNil)
	c.Assert(r3.Cmp(r1), qt.Not(qt.Equals), 0)
}

func TestReconstructRootRejectsMismatchedLengths(t *testing.T) {
	c := qt.New(t)
	_, err := ReconstructRoot([][]byte{leaf(1)}, []int{0, 1}, positionKey(0), leaf(9))
	c.Assert(err, qt.IsNotNil)
}

func TestGetProofUnknownPositionFails(t *testing.T) {
	c := qt.New(t)
	m := NewMirror(metadb.NewTest(t))
	c.Assert(m.Append(1, 0, [][]byte{leaf(1)}), qt.IsNil)

	_, _, err := m.GetProof(1, 0, 5)
	c.Assert(err, qt.IsNotNil)
}

func TestNullifierIndex(t *testing.T) {
	c := qt.New(t)
	m := NewMirror(metadb.NewTest(t))

	n := big.NewInt(42)
	txid, err := m.GetNullified(1, n)
	c.Assert(err, qt.IsNil)
	c.Assert(txid, qt.IsNil)

	c.Assert(m.MarkNullified(1, n, []byte{0xde, 0xad}), qt.IsNil)

	txid, err = m.GetNullified(1, n)
	c.Assert(err, qt.IsNil)
	c.Assert(txid, qt.DeepEquals, []byte{0xde, 0xad})
}

func TestPoseidonHelpersAvailable(t *testing.T) {
	c := qt.New(t)
	el, err := hash.Poseidon(field.FromUint64(1), field.FromUint64(2))
	c.Assert(err, qt.IsNil)
	c.Assert(el.IsZero(), qt.IsFalse)
}
