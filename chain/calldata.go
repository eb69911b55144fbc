package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/shieldwallet/shieldwallet/prover"
	"github.com/shieldwallet/shieldwallet/txbuilder"
)

// DepositInput is one deposit to encode into a generateDeposit call, per
// §6's field layout.
type DepositInput struct {
	PubKey     [2]*big.Int
	Random     *big.Int
	Amount     *big.Int
	TokenSubID *big.Int
	Token      *big.Int
}

const tokenTypeERC20 = 0

type depositArg struct {
	Pubkey     [2]*big.Int
	Random     *big.Int
	Amount     *big.Int
	TokenType  uint8
	TokenSubID *big.Int
	Token      *big.Int
}

// EncodeGenerateDeposit packs calldata for the generateDeposit function.
func EncodeGenerateDeposit(deposits []DepositInput) ([]byte, error) {
	args := make([]depositArg, len(deposits))
	for i, d := range deposits {
		tokenSubID := d.TokenSubID
		if tokenSubID == nil {
			tokenSubID = big.NewInt(0)
		}
		args[i] = depositArg{
			Pubkey:     d.PubKey,
			Random:     d.Random,
			Amount:     d.Amount,
			TokenType:  tokenTypeERC20,
			TokenSubID: tokenSubID,
			Token:      d.Token,
		}
	}
	packed, err := poolABI.Pack("generateDeposit", args)
	if err != nil {
		return nil, fmt.Errorf("chain: pack generateDeposit: %w", err)
	}
	return packed, nil
}

type commitmentOutArg struct {
	Hash         *big.Int
	Ciphertext   []*big.Int
	SenderPubKey [2]*big.Int
	RevealKey    []*big.Int
}

type spendArg struct {
	ProofA            [2]*big.Int
	ProofB            [2][2]*big.Int
	ProofC            [2]*big.Int
	AdaptIDcontract   common.Address
	AdaptIDparameters *big.Int
	DepositAmount     *big.Int
	WithdrawAmount    *big.Int
	TokenType         uint8
	TokenSubID        *big.Int
	TokenField        *big.Int
	OutputEthAddress  common.Address
	TreeNumber        *big.Int
	MerkleRoot        *big.Int
	Nullifiers        []*big.Int
	CommitmentsOut    []commitmentOutArg
}

// bytesToFields packs a ciphertext/revealKey byte blob into 32-byte-aligned
// field words the way the on-chain struct expects fixed uint256 slots.
func bytesToFields(iv [16]byte, data []byte) []*big.Int {
	buf := append(append([]byte{}, iv[:]...), data...)
	words := (len(buf) + 31) / 32
	out := make([]*big.Int, words)
	for i := 0; i < words; i++ {
		start := i * 32
		end := start + 32
		if end > len(buf) {
			end = len(buf)
		}
		chunk := make([]byte, 32)
		copy(chunk, buf[start:end])
		out[i] = new(big.Int).SetBytes(chunk)
	}
	return out
}

// SpendInput bundles one spend's proof, private witness, and adapter
// binding into the shape transact's calldata needs.
type SpendInput struct {
	Proof   *prover.Proof
	Priv    *txbuilder.ERC20PrivateInputs
	AdaptID txbuilder.AdaptID
	Token   [20]byte
}

func toSpendArg(s SpendInput) spendArg {
	commitmentsOut := make([]commitmentOutArg, len(s.Priv.OutputCommitments))
	for i, oc := range s.Priv.OutputCommitments {
		senderX, senderY := new(big.Int), new(big.Int)
		senderX.SetBytes(oc.SenderPubKey[:16])
		senderY.SetBytes(oc.SenderPubKey[16:])
		commitmentsOut[i] = commitmentOutArg{
			Hash:         new(big.Int).SetBytes(oc.Commitment[:]),
			Ciphertext:   bytesToFields(oc.CiphertextIV, oc.Ciphertext),
			SenderPubKey: [2]*big.Int{senderX, senderY},
			RevealKey:    bytesToFields(oc.RevealKeyIV, oc.RevealKey),
		}
	}

	var outputEth common.Address
	if s.Priv.OutputEthAddress != nil {
		outputEth = common.BigToAddress(s.Priv.OutputEthAddress)
	}

	return spendArg{
		ProofA:            s.Proof.A,
		ProofB:            s.Proof.B,
		ProofC:            s.Proof.C,
		AdaptIDcontract:   common.BytesToAddress(s.AdaptID.Contract[:]),
		AdaptIDparameters: new(big.Int).SetBytes(s.AdaptID.Parameters[:]),
		DepositAmount:     s.Priv.DepositAmount,
		WithdrawAmount:    s.Priv.WithdrawAmount,
		TokenType:         tokenTypeERC20,
		TokenSubID:        big.NewInt(0),
		TokenField:        s.Priv.TokenField,
		OutputEthAddress:  outputEth,
		TreeNumber:        new(big.Int).SetUint64(uint64(s.Priv.TreeNumber)),
		MerkleRoot:        s.Priv.MerkleRoot,
		Nullifiers:        s.Priv.Nullifiers,
		CommitmentsOut:    commitmentsOut,
	}
}

// EncodeTransact packs calldata for the transact function.
func EncodeTransact(spends []SpendInput) ([]byte, error) {
	args := make([]spendArg, len(spends))
	for i, s := range spends {
		args[i] = toSpendArg(s)
	}
	packed, err := poolABI.Pack("transact", args)
	if err != nil {
		return nil, fmt.Errorf("chain: pack transact: %w", err)
	}
	return packed, nil
}
