package txbuilder

import (
	"fmt"
	"math/big"

	"github.com/shieldwallet/shieldwallet/crypto/babyjub"
	"github.com/shieldwallet/shieldwallet/keys"
	"github.com/shieldwallet/shieldwallet/merkle"
	"github.com/shieldwallet/shieldwallet/note"
	"github.com/shieldwallet/shieldwallet/types"
	"github.com/shieldwallet/shieldwallet/wallet"
)

// Builder assembles shielded ERC-20 spends against one wallet's key
// material, UTXO set, and Merkle mirror.
type Builder struct {
	wallet *wallet.Wallet
	mirror *merkle.Mirror
	hd     *keys.HDWallet
}

// New builds a Builder over w's UTXOs, mirror's commitment trees, and hd's
// key hierarchy.
func New(w *wallet.Wallet, mirror *merkle.Mirror, hd *keys.HDWallet) *Builder {
	return &Builder{wallet: w, mirror: mirror, hd: hd}
}

var zero = big.NewInt(0)

func nonNil(x *big.Int) *big.Int {
	if x == nil {
		return zero
	}
	return x
}

// Build validates req, selects UTXOs, and assembles the full private
// witness (plus the derived public input) for one shielded ERC-20 spend.
// Validation — output count, token match, withdraw configuration — all
// happens before any of this touches the Merkle mirror or generates
// ciphertexts, so a malformed request never produces partial side effects.
func (b *Builder) Build(req BuildRequest) (Circuit, *ERC20PrivateInputs, *big.Int, error) {
	if len(req.Outputs) > 2 {
		return 0, nil, nil, fmt.Errorf("txbuilder: %d outputs exceeds the 2-output limit: %w", len(req.Outputs), types.ErrTooManyOutputs)
	}
	for _, o := range req.Outputs {
		if o.Token != req.Token {
			return 0, nil, nil, fmt.Errorf("txbuilder: output token does not match request token: %w", types.ErrTokenMismatch)
		}
	}

	deposit := nonNil(req.Deposit)
	withdraw := nonNil(req.Withdraw)

	if withdraw.Sign() > 0 && req.WithdrawAddress == nil {
		return 0, nil, nil, fmt.Errorf("txbuilder: withdraw amount set without a withdraw address: %w", types.ErrWithdrawConfig)
	}
	if withdraw.Sign() == 0 && req.WithdrawAddress != nil {
		return 0, nil, nil, fmt.Errorf("txbuilder: withdraw address set without a withdraw amount: %w", types.ErrWithdrawConfig)
	}

	outputsSum := new(big.Int)
	for _, o := range req.Outputs {
		outputsSum.Add(outputsSum, o.Amount)
	}

	required := new(big.Int).Add(outputsSum, withdraw)
	required.Sub(required, deposit)

	tree, inputs, err := selectTree(b.wallet, req.ChainID, req.Token, required, req.Tree)
	if err != nil {
		return 0, nil, nil, err
	}

	totalIn := new(big.Int)
	for _, in := range inputs {
		totalIn.Add(totalIn, in.note.Amount)
	}
	change := new(big.Int).Sub(totalIn, required)
	if change.Sign() < 0 {
		return 0, nil, nil, fmt.Errorf("txbuilder: selected inputs %s below required %s", totalIn, required)
	}

	viewKey, err := b.hd.ViewKey()
	if err != nil {
		return 0, nil, nil, fmt.Errorf("txbuilder: view key: %w", err)
	}
	changeSk, err := b.hd.ChangeKey(0)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("txbuilder: change key: %w", err)
	}
	changePub := babyjub.PrivateToPublic(changeSk).Pack()

	outs, err := buildOutputs(req.Outputs, changePub, change, req.Token)
	if err != nil {
		return 0, nil, nil, err
	}
	outputCommitments, ciphertextHash, err := encryptOutputs(outs, viewKey)
	if err != nil {
		return 0, nil, nil, err
	}

	merkleRoot, err := b.mirror.Root(req.ChainID, tree)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("txbuilder: merkle root: %w", err)
	}
	known, err := b.mirror.KnownRoot(req.ChainID, tree, merkleRoot)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("txbuilder: known root: %w", err)
	}
	if !known {
		return 0, nil, nil, fmt.Errorf("txbuilder: merkle root not in the known-root ring: %w", types.ErrRootNotKnown)
	}

	arity := len(inputs)
	circuit := CircuitSmall
	if arity > types.SmallCircuitInputs {
		circuit = CircuitLarge
	}

	randomIn := make([][16]byte, arity)
	valuesIn := make([]*big.Int, arity)
	spendingKeys := make([][32]byte, arity)
	nullifiers := make([]*big.Int, arity)
	pathElements := make([][][]byte, arity)
	pathIndices := make([][]int, arity)

	for i, in := range inputs {
		randomIn[i] = in.note.Random
		valuesIn[i] = in.note.Amount

		if in.isDummy() {
			spendingKeys[i] = [32]byte(in.dummySK)
			nf, err := note.Nullifier([32]byte(in.dummySK), uint64(tree), 0)
			if err != nil {
				return 0, nil, nil, fmt.Errorf("txbuilder: dummy nullifier: %w", err)
			}
			nullifiers[i] = nf.BigInt()
			pathElements[i] = zeroPath()
			pathIndices[i] = make([]int, types.TreeDepth)
			continue
		}

		sk, err := b.hd.DeriveKey(in.txo.KeyChain, in.txo.KeyIndex)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("txbuilder: derive input key: %w", err)
		}
		spendingKeys[i] = [32]byte(sk)

		nf, err := note.Nullifier([32]byte(sk), uint64(in.txo.Tree), in.txo.Position)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("txbuilder: nullifier: %w", err)
		}
		nullifiers[i] = nf.BigInt()

		elements, indices, err := b.mirror.GetProof(req.ChainID, in.txo.Tree, in.txo.Position)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("txbuilder: merkle proof for position %d: %w", in.txo.Position, err)
		}
		pathElements[i] = elements
		pathIndices[i] = indices
	}

	recipientPK := make([][2]*big.Int, len(outs))
	randomOut := make([][16]byte, len(outs))
	valuesOut := make([]*big.Int, len(outs))
	commitmentsOut := make([]*big.Int, len(outs))
	for i, n := range outs {
		pk, err := babyjub.Unpack(n.PubKey)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("txbuilder: output pubkey: %w", err)
		}
		recipientPK[i] = [2]*big.Int{pk.X, pk.Y}
		randomOut[i] = n.Random
		valuesOut[i] = n.Amount

		c, err := n.Commitment()
		if err != nil {
			return 0, nil, nil, fmt.Errorf("txbuilder: output commitment: %w", err)
		}
		commitmentsOut[i] = c.BigInt()
	}

	outputTokenField := new(big.Int)
	if deposit.Sign() > 0 || withdraw.Sign() > 0 {
		outputTokenField.SetBytes(req.Token[:])
	}
	outputEthAddress := new(big.Int)
	if req.WithdrawAddress != nil {
		outputEthAddress.SetBytes(req.WithdrawAddress[:])
	}

	priv := &ERC20PrivateInputs{
		AdaptIDHash:       adaptIDHash(req.AdaptID),
		TokenField:        new(big.Int).SetBytes(req.Token[:]),
		DepositAmount:     deposit,
		WithdrawAmount:    withdraw,
		OutputTokenField:  outputTokenField,
		OutputEthAddress:  outputEthAddress,
		RandomIn:          randomIn,
		ValuesIn:          valuesIn,
		SpendingKeys:      spendingKeys,
		TreeNumber:        tree,
		MerkleRoot:        merkleRoot,
		Nullifiers:        nullifiers,
		PathElements:      pathElements,
		PathIndices:       pathIndices,
		RecipientPK:       recipientPK,
		RandomOut:         randomOut,
		ValuesOut:         valuesOut,
		CommitmentsOut:    commitmentsOut,
		CiphertextHash:    ciphertextHash,
		OutputCommitments: outputCommitments,
	}

	publicInput := HashOfInputs(priv.Public())
	return circuit, priv, publicInput, nil
}

func zeroPath() [][]byte {
	out := make([][]byte, types.TreeDepth)
	for i := range out {
		out[i] = make([]byte, 32)
	}
	return out
}
