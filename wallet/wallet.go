// Package wallet scans incoming shielded notes against the wallet's own
// key material, persists matched TXOs, and reports balances. It follows
// storage.Storage's prefixed-KV/CBOR artifact pattern (storage/storage.go,
// storage/helpers.go) for persistence and storage/ballot_queue.go's
// lock-guarded, idempotent queue-processing shape for the scanner.
package wallet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/shieldwallet/shieldwallet/crypto/babyjub"
	"github.com/shieldwallet/shieldwallet/keys"
	"github.com/shieldwallet/shieldwallet/merkle"
	"github.com/shieldwallet/shieldwallet/note"
	"github.com/shieldwallet/shieldwallet/types"
)

var (
	txoPrefix    = []byte("txo/")
	cursorPrefix = []byte("cur/")
)

type keyRef struct {
	Chain uint32
	Index uint32
}

// TXO is a note the wallet has observed and can prove ownership of.
type TXO struct {
	ChainID  uint32     `cbor:"0,keyasint"`
	Tree     uint32     `cbor:"1,keyasint"`
	Position uint64     `cbor:"2,keyasint"`
	KeyChain uint32     `cbor:"3,keyasint"`
	KeyIndex uint32     `cbor:"4,keyasint"`
	Note     *note.Note `cbor:"5,keyasint"`
	Spent    bool       `cbor:"6,keyasint"`
	SpendTx  []byte     `cbor:"7,keyasint,omitempty"`
}

func (t *TXO) dbKey() []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint32(buf[0:4], t.ChainID)
	binary.BigEndian.PutUint32(buf[4:8], t.Tree)
	binary.BigEndian.PutUint64(buf[8:16], t.Position)
	return buf
}

func cursorKey(chainID, tree uint32) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], chainID)
	binary.BigEndian.PutUint32(buf[4:8], tree)
	return buf
}

// Wallet is a scanning, balance-tracking shielded-note wallet over one
// HD key hierarchy and one Merkle mirror, across any number of chains.
type Wallet struct {
	hd       *keys.HDWallet
	mirror   *merkle.Mirror
	db       db.Database
	gapLimit uint32

	mu       sync.Mutex
	horizon  map[uint32]uint32 // chain -> next index to derive if needed
	keyCache map[keyRef]babyjub.PrivateKey

	scanLocksMu sync.Mutex
	scanLocks   map[uint32]*sync.Mutex
}

// New builds a Wallet. gapLimit of 0 uses types.DefaultGapLimit.
func New(hd *keys.HDWallet, mirror *merkle.Mirror, database db.Database, gapLimit uint32) *Wallet {
	if gapLimit == 0 {
		gapLimit = types.DefaultGapLimit
	}
	return &Wallet{
		hd:        hd,
		mirror:    mirror,
		db:        database,
		gapLimit:  gapLimit,
		horizon:   map[uint32]uint32{keys.ChainPrimary: gapLimit, keys.ChainChange: gapLimit},
		keyCache:  make(map[keyRef]babyjub.PrivateKey),
		scanLocks: make(map[uint32]*sync.Mutex),
	}
}

func (w *Wallet) keyAt(ref keyRef) (babyjub.PrivateKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if sk, ok := w.keyCache[ref]; ok {
		return sk, nil
	}
	sk, err := w.hd.DeriveKey(ref.Chain, ref.Index)
	if err != nil {
		return babyjub.PrivateKey{}, err
	}
	w.keyCache[ref] = sk
	return sk, nil
}

// activeIndices returns the indices currently within the scan horizon for
// chain, deriving and caching their keys.
func (w *Wallet) activeIndices(chain uint32) ([]keyRef, error) {
	w.mu.Lock()
	horizon := w.horizon[chain]
	w.mu.Unlock()

	refs := make([]keyRef, 0, horizon)
	for i := uint32(0); i < horizon; i++ {
		refs = append(refs, keyRef{Chain: chain, Index: i})
	}
	return refs, nil
}

// extendHorizon grows the scan window for chain so that at least gapLimit
// unused indices remain beyond matchedIndex.
func (w *Wallet) extendHorizon(chain, matchedIndex uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	needed := matchedIndex + w.gapLimit + 1
	if needed > w.horizon[chain] {
		w.horizon[chain] = needed
	}
}

func (w *Wallet) lockForChain(chainID uint32) *sync.Mutex {
	w.scanLocksMu.Lock()
	defer w.scanLocksMu.Unlock()
	l, ok := w.scanLocks[chainID]
	if !ok {
		l = &sync.Mutex{}
		w.scanLocks[chainID] = l
	}
	return l
}

func (w *Wallet) cursor(chainID, tree uint32) (uint64, error) {
	r := prefixeddb.NewPrefixedReader(w.db, cursorPrefix)
	v, err := r.Get(cursorKey(chainID, tree))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

func (w *Wallet) setCursor(chainID, tree uint32, next uint64) error {
	wTx := prefixeddb.NewPrefixedWriteTx(w.db.WriteTx(), cursorPrefix)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := wTx.Set(cursorKey(chainID, tree), buf); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

func (w *Wallet) putTXO(t *TXO) error {
	data, err := cbor.Marshal(t)
	if err != nil {
		return fmt.Errorf("wallet: encode txo: %w", err)
	}
	wTx := prefixeddb.NewPrefixedWriteTx(w.db.WriteTx(), txoPrefix)
	if err := wTx.Set(t.dbKey(), data); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// MarkSpent records that t was consumed by txHash.
func (w *Wallet) MarkSpent(t *TXO, txHash []byte) error {
	t.Spent = true
	t.SpendTx = txHash
	return w.putTXO(t)
}
