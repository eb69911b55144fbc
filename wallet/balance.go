package wallet

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// TXOs returns every unspent TXO for chainID, optionally restricted to a
// single tree (pass nil for tree to span all trees).
func (w *Wallet) TXOs(chainID uint32, tree *uint32) ([]*TXO, error) {
	r := prefixeddb.NewPrefixedReader(w.db, txoPrefix)
	var out []*TXO
	var iterErr error
	err := r.Iterate(nil, func(k, v []byte) bool {
		var t TXO
		if err := cbor.Unmarshal(v, &t); err != nil {
			iterErr = fmt.Errorf("wallet: decode txo: %w", err)
			return false
		}
		if t.ChainID != chainID || t.Spent {
			return true
		}
		if tree != nil && t.Tree != *tree {
			return true
		}
		out = append(out, &t)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("wallet: iterate txos: %w", err)
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}

// Balances sums unspent TXO amounts per token across every tree of chainID.
func (w *Wallet) Balances(chainID uint32) (map[[32]byte]*big.Int, error) {
	txos, err := w.TXOs(chainID, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[[32]byte]*big.Int)
	for _, t := range txos {
		sum, ok := out[t.Note.Token]
		if !ok {
			sum = new(big.Int)
			out[t.Note.Token] = sum
		}
		sum.Add(sum, t.Note.Amount)
	}
	return out, nil
}

// BalancesByTree sums unspent TXO amounts per (tree, token) for chainID,
// the shape txbuilder's UTXO selection needs since inputs to one proof must
// all come from the same tree.
func (w *Wallet) BalancesByTree(chainID uint32) (map[uint32]map[[32]byte]*big.Int, error) {
	txos, err := w.TXOs(chainID, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]map[[32]byte]*big.Int)
	for _, t := range txos {
		byToken, ok := out[t.Tree]
		if !ok {
			byToken = make(map[[32]byte]*big.Int)
			out[t.Tree] = byToken
		}
		sum, ok := byToken[t.Note.Token]
		if !ok {
			sum = new(big.Int)
			byToken[t.Note.Token] = sum
		}
		sum.Add(sum, t.Note.Amount)
	}
	return out, nil
}
