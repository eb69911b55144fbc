// Package txbuilder assembles a shielded ERC-20 spend: it selects UTXOs,
// pads inputs/outputs to fixed circuit arities, encrypts outputs, and
// derives both the zk-SNARK private witness and the single public input
// the circuit exposes. It follows sequencer/ballot.go's shape (gather
// inputs, build an assignment struct, hash the public inputs) and
// state/merkleproof.go's path-padding convention.
package txbuilder

import "math/big"

// AdaptID binds a proof to a specific off-chain adapter contract call so
// the proof cannot be replayed by a different one.
type AdaptID struct {
	Contract   [32]byte
	Parameters [32]byte
}

// OutputRequest is a caller-specified recipient of a spend.
type OutputRequest struct {
	PubKey [32]byte
	Amount *big.Int
	Token  [32]byte
}

// BuildRequest describes a spend to assemble.
type BuildRequest struct {
	ChainID         uint32
	Token           [32]byte
	Deposit         *big.Int
	Withdraw        *big.Int
	WithdrawAddress *[20]byte
	Outputs         []OutputRequest
	AdaptID         AdaptID
	// Tree pins the selection to a specific tree; nil lets the builder
	// choose the first usable one.
	Tree *uint32
}

// OutputCommitment is one padded, encrypted output of a spend.
type OutputCommitment struct {
	Commitment   [32]byte
	SenderPubKey [32]byte
	CiphertextIV [16]byte
	Ciphertext   []byte
	RevealKeyIV  [16]byte
	RevealKey    []byte
}

// ERC20PrivateInputs is the full private witness for the ERC-20 circuit.
type ERC20PrivateInputs struct {
	AdaptIDHash       *big.Int
	TokenField        *big.Int
	DepositAmount     *big.Int
	WithdrawAmount    *big.Int
	OutputTokenField  *big.Int
	OutputEthAddress  *big.Int
	RandomIn          [][16]byte
	ValuesIn          []*big.Int
	SpendingKeys      [][32]byte
	TreeNumber        uint32
	MerkleRoot        *big.Int
	Nullifiers        []*big.Int
	PathElements      [][][]byte
	PathIndices       [][]int
	RecipientPK       [][2]*big.Int
	RandomOut         [][16]byte
	ValuesOut         []*big.Int
	CommitmentsOut    []*big.Int
	CiphertextHash    *big.Int
	OutputCommitments []OutputCommitment
}

// Circuit identifies which arity of the ERC-20 circuit a build targets.
type Circuit int

const (
	CircuitSmall Circuit = iota
	CircuitLarge
)

// PublicInputs is the subset of ERC20PrivateInputs the circuit exposes
// publicly; hashOfInputs binds all of it into the single public signal the
// verifier checks. It is computed independently of the full witness so the
// prover adapter can re-derive hashOfInputs from a verifier's point of view
// without needing the spending keys or path elements.
type PublicInputs struct {
	AdaptIDHash      *big.Int
	DepositAmount    *big.Int
	WithdrawAmount   *big.Int
	OutputTokenField *big.Int
	OutputEthAddress *big.Int
	TreeNumber       uint32
	MerkleRoot       *big.Int
	Nullifiers       []*big.Int
	CommitmentsOut   []*big.Int
	CiphertextHash   *big.Int
}

// Public extracts the public-facing subset of priv.
func (priv *ERC20PrivateInputs) Public() *PublicInputs {
	return &PublicInputs{
		AdaptIDHash:      priv.AdaptIDHash,
		DepositAmount:    priv.DepositAmount,
		WithdrawAmount:   priv.WithdrawAmount,
		OutputTokenField: priv.OutputTokenField,
		OutputEthAddress: priv.OutputEthAddress,
		TreeNumber:       priv.TreeNumber,
		MerkleRoot:       priv.MerkleRoot,
		Nullifiers:       priv.Nullifiers,
		CommitmentsOut:   priv.CommitmentsOut,
		CiphertextHash:   priv.CiphertextHash,
	}
}
