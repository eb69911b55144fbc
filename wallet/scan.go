package wallet

import (
	"fmt"

	"github.com/shieldwallet/shieldwallet/crypto/aesctr"
	"github.com/shieldwallet/shieldwallet/crypto/babyjub"
	"github.com/shieldwallet/shieldwallet/note"
)

// IncomingLeaf is one commitment observed on-chain, in tree-position order,
// together with the data needed to trial-decrypt it.
type IncomingLeaf struct {
	Position        uint64
	Commitment      [32]byte
	EphemeralPubKey [32]byte
	Ciphertext      aesctr.Ciphertext
}

// ScanResult summarizes one Scan call.
type ScanResult struct {
	Processed int
	Matched   int
	Skipped   bool // true if a concurrent scan for this chain was already running
}

// Scan appends leaves' commitments to the Merkle mirror for (chainID, tree)
// and trial-decrypts each against the wallet's active key window. It is
// idempotent: the stored cursor is one past the last processed position
// and leaves before it are skipped, so re-delivering the same (or an overlapping) batch has no effect. A second
// concurrent call for the same chainID returns immediately with
// Skipped=true rather than blocking or erroring.
func (w *Wallet) Scan(chainID, tree uint32, leaves []IncomingLeaf) (*ScanResult, error) {
	lock := w.lockForChain(chainID)
	if !lock.TryLock() {
		return &ScanResult{Skipped: true}, nil
	}
	defer lock.Unlock()

	next, err := w.cursor(chainID, tree)
	if err != nil {
		return nil, fmt.Errorf("wallet: read cursor: %w", err)
	}

	pending := make([]IncomingLeaf, 0, len(leaves))
	for _, l := range leaves {
		if l.Position < next {
			continue
		}
		pending = append(pending, l)
	}
	if len(pending) == 0 {
		return &ScanResult{}, nil
	}

	commitments := make([][]byte, len(pending))
	for i, l := range pending {
		commitments[i] = append([]byte{}, l.Commitment[:]...)
	}
	if err := w.mirror.Append(chainID, tree, commitments); err != nil {
		return nil, fmt.Errorf("wallet: append leaves: %w", err)
	}

	matched := 0
	for _, l := range pending {
		n, ref, ok, err := w.matchLeaf(l)
		if err != nil {
			return nil, fmt.Errorf("wallet: match leaf %d: %w", l.Position, err)
		}
		if ok {
			t := &TXO{
				ChainID:  chainID,
				Tree:     tree,
				Position: l.Position,
				KeyChain: ref.Chain,
				KeyIndex: ref.Index,
				Note:     n,
			}
			if err := w.putTXO(t); err != nil {
				return nil, fmt.Errorf("wallet: persist txo: %w", err)
			}
			w.extendHorizon(ref.Chain, ref.Index)
			matched++
		}
		next = l.Position + 1
	}

	if err := w.setCursor(chainID, tree, next); err != nil {
		return nil, fmt.Errorf("wallet: persist cursor: %w", err)
	}
	return &ScanResult{Processed: len(pending), Matched: matched}, nil
}

// matchLeaf trial-decrypts leaf against every key in the wallet's current
// scan window across both the primary and change chains.
func (w *Wallet) matchLeaf(l IncomingLeaf) (*note.Note, keyRef, bool, error) {
	ephemeral, err := babyjub.Unpack(l.EphemeralPubKey)
	if err != nil {
		// An unparseable ephemeral key means this leaf can't have been
		// addressed to us (or anyone) via ECDH; not a match, not an error.
		return nil, keyRef{}, false, nil
	}

	for _, chain := range []uint32{0, 1} {
		refs, err := w.activeIndices(chain)
		if err != nil {
			return nil, keyRef{}, false, err
		}
		for _, ref := range refs {
			sk, err := w.keyAt(ref)
			if err != nil {
				return nil, keyRef{}, false, err
			}
			shared, err := babyjub.ECDH(sk, ephemeral)
			if err != nil {
				continue
			}
			n, err := note.Decrypt(l.Ciphertext, shared)
			if err != nil {
				continue
			}
			commitment, err := n.Commitment()
			if err != nil {
				continue
			}
			if commitment.Bytes32() == l.Commitment {
				return n, ref, true, nil
			}
		}
	}
	return nil, keyRef{}, false, nil
}
