// Package merkle mirrors the on-chain commitment tree per (chainId,
// treeNumber): an append-only shadow of the leaves, a bounded ring of
// historical roots, and a nullifier index. It is built directly on
// github.com/vocdoni/arbo (arbo.NewTree/.Add/.Root/.GenProof), exactly as
// the teacher's state.State does, over a go.vocdoni.io/dvote/db +
// prefixeddb backing store. The root ring and nullifier index are new: the
// teacher's own state package has no equivalent (its voting protocol never
// reuses roots across blocks), so this is grounded on the general
// append-only-tree pattern state.go establishes rather than copied logic.
package merkle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/shieldwallet/shieldwallet/types"
)

// defaultRingSize matches the bounded root history the on-chain contract
// itself retains.
const defaultRingSize = 256

// TreeKey identifies one commitment tree.
type TreeKey struct {
	ChainID uint32
	Tree    uint32
}

func (k TreeKey) bytes() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], k.ChainID)
	binary.BigEndian.PutUint32(buf[4:8], k.Tree)
	return buf
}

type treeState struct {
	tree  *arbo.Tree
	count uint64
	ring  [][]byte
}

// Mirror is the wallet's read-shared shadow of the on-chain commitment
// trees for every chain it scans.
type Mirror struct {
	db       db.Database
	ringSize int

	mu     sync.Mutex
	states map[TreeKey]*treeState
	nulls  map[uint32]map[string][]byte
}

// NewMirror opens (or lazily creates) a Mirror backed by database.
func NewMirror(database db.Database) *Mirror {
	return &Mirror{
		db:       database,
		ringSize: defaultRingSize,
		states:   make(map[TreeKey]*treeState),
		nulls:    make(map[uint32]map[string][]byte),
	}
}

func treePrefix(k TreeKey) []byte {
	return append([]byte("mt/"), k.bytes()...)
}

func countPrefix(k TreeKey) []byte {
	return append([]byte("mc/"), k.bytes()...)
}

func ringPrefix(k TreeKey) []byte {
	return append([]byte("mr/"), k.bytes()...)
}

func nullPrefix(chainID uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, chainID)
	return append([]byte("nl/"), buf...)
}

func positionKey(position uint64) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(position))
	return buf
}

func (m *Mirror) loadCount(k TreeKey) (uint64, error) {
	r := prefixeddb.NewPrefixedReader(m.db, countPrefix(k))
	v, err := r.Get([]byte{0})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

func (m *Mirror) storeCount(k TreeKey, n uint64) error {
	wTx := prefixeddb.NewPrefixedWriteTx(m.db.WriteTx(), countPrefix(k))
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	if err := wTx.Set([]byte{0}, buf); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

func (m *Mirror) loadRing(k TreeKey) ([][]byte, error) {
	r := prefixeddb.NewPrefixedReader(m.db, ringPrefix(k))
	v, err := r.Get([]byte{0})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ring [][]byte
	if err := cbor.Unmarshal(v, &ring); err != nil {
		return nil, fmt.Errorf("merkle: decode ring: %w", err)
	}
	return ring, nil
}

func (m *Mirror) storeRing(k TreeKey, ring [][]byte) error {
	data, err := cbor.Marshal(ring)
	if err != nil {
		return fmt.Errorf("merkle: encode ring: %w", err)
	}
	wTx := prefixeddb.NewPrefixedWriteTx(m.db.WriteTx(), ringPrefix(k))
	if err := wTx.Set([]byte{0}, data); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

func (m *Mirror) stateLocked(k TreeKey) (*treeState, error) {
	if s, ok := m.states[k]; ok {
		return s, nil
	}
	pdb := prefixeddb.NewPrefixedDatabase(m.db, treePrefix(k))
	tree, err := arbo.NewTree(arbo.Config{
		Database:     pdb,
		MaxLevels:    types.TreeDepth,
		HashFunction: arbo.HashFunctionPoseidon,
	})
	if err != nil {
		return nil, fmt.Errorf("merkle: open tree: %w", err)
	}
	count, err := m.loadCount(k)
	if err != nil {
		return nil, fmt.Errorf("merkle: load count: %w", err)
	}
	ring, err := m.loadRing(k)
	if err != nil {
		return nil, fmt.Errorf("merkle: load ring: %w", err)
	}
	s := &treeState{tree: tree, count: count, ring: ring}
	if len(ring) == 0 {
		// A brand-new tree's empty root is itself a known root (mirrors an
		// on-chain tree's genesis state), so KnownRoot doesn't reject a
		// transaction that spends nothing but dummy inputs against it.
		root, err := tree.Root()
		if err != nil {
			return nil, fmt.Errorf("merkle: initial root: %w", err)
		}
		s.pushRoot(root, m.ringSize)
		if err := m.storeRing(k, s.ring); err != nil {
			return nil, fmt.Errorf("merkle: persist initial ring: %w", err)
		}
	}
	m.states[k] = s
	return s, nil
}

func (s *treeState) pushRoot(root []byte, ringSize int) {
	cp := append([]byte{}, root...)
	s.ring = append(s.ring, cp)
	if len(s.ring) > ringSize {
		s.ring = s.ring[len(s.ring)-ringSize:]
	}
}

// Append pushes leaves at the next available positions in (chainID,
// treeNum) and recomputes the root.
func (m *Mirror) Append(chainID, treeNum uint32, leaves [][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := TreeKey{chainID, treeNum}
	s, err := m.stateLocked(k)
	if err != nil {
		return err
	}
	for _, leaf := range leaves {
		key := positionKey(s.count)
		if err := s.tree.Add(key, leaf); err != nil {
			return fmt.Errorf("merkle: add leaf at position %d: %w", s.count, err)
		}
		s.count++
	}
	if err := m.storeCount(k, s.count); err != nil {
		return fmt.Errorf("merkle: persist count: %w", err)
	}
	root, err := s.tree.Root()
	if err != nil {
		return fmt.Errorf("merkle: root: %w", err)
	}
	s.pushRoot(root, m.ringSize)
	if err := m.storeRing(k, s.ring); err != nil {
		return fmt.Errorf("merkle: persist ring: %w", err)
	}
	return nil
}

// Root returns the current root of (chainID, treeNum) as a field integer.
func (m *Mirror) Root(chainID, treeNum uint32) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.stateLocked(TreeKey{chainID, treeNum})
	if err != nil {
		return nil, err
	}
	root, err := s.tree.Root()
	if err != nil {
		return nil, fmt.Errorf("merkle: root: %w", err)
	}
	return arbo.BytesToBigInt(root), nil
}

// KnownRoot reports whether root is retained in (chainID, treeNum)'s ring
// of historical roots.
func (m *Mirror) KnownRoot(chainID, treeNum uint32, root *big.Int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.stateLocked(TreeKey{chainID, treeNum})
	if err != nil {
		return false, err
	}
	for _, r := range s.ring {
		if arbo.BytesToBigInt(r).Cmp(root) == 0 {
			return true, nil
		}
	}
	return false, nil
}

// GetProof returns the sibling path and index bits for position in
// (chainID, treeNum), padded to types.TreeDepth.
func (m *Mirror) GetProof(chainID, treeNum uint32, position uint64) ([][]byte, []int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.stateLocked(TreeKey{chainID, treeNum})
	if err != nil {
		return nil, nil, err
	}
	key := positionKey(position)
	_, _, packed, existence, err := s.tree.GenProof(key)
	if err != nil {
		return nil, nil, fmt.Errorf("merkle: gen proof: %w", err)
	}
	if !existence {
		return nil, nil, fmt.Errorf("merkle: position %d not present", position)
	}
	siblings, err := arbo.UnpackSiblings(arbo.HashFunctionPoseidon, packed)
	if err != nil {
		return nil, nil, fmt.Errorf("merkle: unpack siblings: %w", err)
	}

	elements := make([][]byte, types.TreeDepth)
	indices := make([]int, types.TreeDepth)
	for i := 0; i < types.TreeDepth; i++ {
		if i < len(siblings) {
			elements[i] = siblings[i]
		} else {
			elements[i] = make([]byte, 32)
		}
		indices[i] = int((position >> uint(i)) & 1)
	}
	return elements, indices, nil
}

// MarkNullified records that nullifier was spent in transaction txid.
func (m *Mirror) MarkNullified(chainID uint32, nullifier *big.Int, txid []byte) error {
	wTx := prefixeddb.NewPrefixedWriteTx(m.db.WriteTx(), nullPrefix(chainID))
	if err := wTx.Set(nullifier.Bytes(), txid); err != nil {
		wTx.Discard()
		return fmt.Errorf("merkle: mark nullified: %w", err)
	}
	return wTx.Commit()
}

// GetNullified returns the txid that spent nullifier, or nil if unspent.
func (m *Mirror) GetNullified(chainID uint32, nullifier *big.Int) ([]byte, error) {
	r := prefixeddb.NewPrefixedReader(m.db, nullPrefix(chainID))
	v, err := r.Get(nullifier.Bytes())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("merkle: get nullified: %w", err)
	}
	return v, nil
}
