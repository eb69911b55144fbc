package txbuilder

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/shieldwallet/shieldwallet/crypto/babyjub"
	"github.com/shieldwallet/shieldwallet/note"
	"github.com/shieldwallet/shieldwallet/types"
	"github.com/shieldwallet/shieldwallet/wallet"
)

// selectedInput is one input slot: either a real TXO or a freshly-minted
// dummy note padding the circuit's fixed arity.
type selectedInput struct {
	txo     *wallet.TXO
	note    *note.Note
	dummySK babyjub.PrivateKey
}

func (s selectedInput) isDummy() bool { return s.txo == nil }

// targetArity returns the smallest circuit slot count (2 or 10) that fits
// n real inputs, or 0 if n exceeds the large circuit.
func targetArity(n int) int {
	switch {
	case n <= types.SmallCircuitInputs:
		return types.SmallCircuitInputs
	case n <= types.LargeCircuitInputs:
		return types.LargeCircuitInputs
	default:
		return 0
	}
}

func dummyInput(token [32]byte) (selectedInput, error) {
	sk := babyjub.RandomPrivateKey()
	pub := babyjub.PrivateToPublic(sk).Pack()
	var random [16]byte
	n, err := note.New(pub, random, big.NewInt(0), token)
	if err != nil {
		return selectedInput{}, fmt.Errorf("txbuilder: dummy note: %w", err)
	}
	return selectedInput{note: n, dummySK: sk}, nil
}

// selectTree implements §4.G's selection algorithm: it picks the first
// tree whose real UTXOs can cover required without exceeding the large
// circuit's input count, greedily selecting by descending amount and
// padding with the smallest remaining real UTXOs before falling back to
// dummy notes.
func selectTree(w *wallet.Wallet, chainID uint32, token [32]byte, required *big.Int, pinned *uint32) (uint32, []selectedInput, error) {
	if required.Sign() <= 0 {
		tree := uint32(0)
		if pinned != nil {
			tree = *pinned
		}
		inputs := make([]selectedInput, 0, types.SmallCircuitInputs)
		for i := 0; i < types.SmallCircuitInputs; i++ {
			d, err := dummyInput(token)
			if err != nil {
				return 0, nil, err
			}
			inputs = append(inputs, d)
		}
		return tree, inputs, nil
	}

	byTree, err := w.BalancesByTree(chainID)
	if err != nil {
		return 0, nil, fmt.Errorf("txbuilder: balances by tree: %w", err)
	}

	total := new(big.Int)
	for _, byToken := range byTree {
		if amt, ok := byToken[token]; ok {
			total.Add(total, amt)
		}
	}
	if total.Cmp(required) < 0 {
		return 0, nil, fmt.Errorf("txbuilder: total %s available, %s required: %w", total, required, types.ErrInsufficientBalance)
	}

	trees := make([]uint32, 0, len(byTree))
	for tree := range byTree {
		trees = append(trees, tree)
	}
	sort.Slice(trees, func(i, j int) bool { return trees[i] < trees[j] })
	if pinned != nil {
		trees = []uint32{*pinned}
	}

	for _, tree := range trees {
		amt, ok := byTree[tree][token]
		if !ok || amt.Cmp(required) < 0 {
			continue
		}

		txos, err := w.TXOs(chainID, &tree)
		if err != nil {
			return 0, nil, fmt.Errorf("txbuilder: txos: %w", err)
		}
		var candidates []*wallet.TXO
		for _, t := range txos {
			if t.Note.Token == token {
				candidates = append(candidates, t)
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].Note.Amount.Cmp(candidates[j].Note.Amount) > 0
		})

		var selected []*wallet.TXO
		sum := new(big.Int)
		for _, c := range candidates {
			if sum.Cmp(required) >= 0 {
				break
			}
			selected = append(selected, c)
			sum.Add(sum, c.Note.Amount)
		}
		if sum.Cmp(required) < 0 {
			continue
		}

		arity := targetArity(len(selected))
		if arity == 0 {
			continue
		}

		chosen := make(map[*wallet.TXO]bool, len(selected))
		for _, s := range selected {
			chosen[s] = true
		}
		var remaining []*wallet.TXO
		for _, c := range candidates {
			if !chosen[c] {
				remaining = append(remaining, c)
			}
		}
		sort.Slice(remaining, func(i, j int) bool {
			return remaining[i].Note.Amount.Cmp(remaining[j].Note.Amount) < 0
		})
		for len(selected) < arity && len(remaining) > 0 {
			selected = append(selected, remaining[0])
			remaining = remaining[1:]
		}

		inputs := make([]selectedInput, 0, arity)
		for _, s := range selected {
			s := s
			inputs = append(inputs, selectedInput{txo: s, note: s.Note})
		}
		for len(inputs) < arity {
			d, err := dummyInput(token)
			if err != nil {
				return 0, nil, err
			}
			inputs = append(inputs, d)
		}
		return tree, inputs, nil
	}
	return 0, nil, fmt.Errorf("txbuilder: no tree covers %s without exceeding the large circuit: %w", required, types.ErrNeedsConsolidation)
}
