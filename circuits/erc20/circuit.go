// Package erc20 holds the gnark circuit definitions for the shielded
// ERC-20 spend, mirroring the private/public witness txbuilder assembles.
// Like circuits/aggregator and circuits/voteverifier, this is circuit
// source kept next to (not driving) the precompiled artifacts prover
// loads at runtime: it documents what the artifacts actually enforce, it
// is never compiled or run by this module.
package erc20

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	garbo "github.com/vocdoni/gnark-crypto-primitives/tree/arbo"
	"github.com/vocdoni/gnark-crypto-primitives/utils"

	"github.com/shieldwallet/shieldwallet/types"
)

const (
	treeLevels  = types.TreeDepth
	outputs     = types.CircuitOutputs
	smallInputs = types.SmallCircuitInputs
	largeInputs = types.LargeCircuitInputs
)

// merkleProof is one input note's inclusion path, following
// state/merkleproof.go's MerkleProof shape; defineSpend checks it with the
// MiMC hasher (utils.MiMCHasher), not Poseidon.
type merkleProof struct {
	Root     frontend.Variable
	Siblings [treeLevels]frontend.Variable
	Key      frontend.Variable
	Value    frontend.Variable
}

func (mp *merkleProof) verify(api frontend.API, hFn utils.Hasher, root frontend.Variable) {
	api.AssertIsEqual(root, mp.Root)
	if err := garbo.CheckInclusionProof(api, hFn, mp.Key, mp.Value, mp.Root, mp.Siblings[:]); err != nil {
		panic(err)
	}
}

// commonFields is the set of scalar witness fields shared by both circuit
// arities, hashed together into the single public signal per §4.G.
type commonFields struct {
	AdaptIDHash      frontend.Variable
	TokenField       frontend.Variable
	DepositAmount    frontend.Variable
	WithdrawAmount   frontend.Variable
	OutputTokenField frontend.Variable
	OutputEthAddress frontend.Variable
	TreeNumber       frontend.Variable
	MerkleRoot       frontend.Variable
	CiphertextHash   frontend.Variable
}

func hashPublicInputs(api frontend.API, c commonFields, nullifiers, commitmentsOut []frontend.Variable) (frontend.Variable, error) {
	hFn, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	hFn.Write(c.AdaptIDHash, c.DepositAmount, c.WithdrawAmount, c.OutputTokenField,
		c.OutputEthAddress, c.TreeNumber, c.MerkleRoot)
	hFn.Write(nullifiers...)
	hFn.Write(commitmentsOut...)
	hFn.Write(c.CiphertextHash)
	return hFn.Sum(), nil
}

// checkConservation enforces sum(valuesIn) + deposit == sum(valuesOut) +
// withdraw: the circuit's core value-conservation invariant.
func checkConservation(api frontend.API, valuesIn, valuesOut []frontend.Variable, deposit, withdraw frontend.Variable) {
	totalIn := frontend.Variable(0)
	for _, v := range valuesIn {
		totalIn = api.Add(totalIn, v)
	}
	totalIn = api.Add(totalIn, deposit)

	totalOut := frontend.Variable(0)
	for _, v := range valuesOut {
		totalOut = api.Add(totalOut, v)
	}
	totalOut = api.Add(totalOut, withdraw)

	api.AssertIsEqual(totalIn, totalOut)
}

// verifyNullifiers checks each spent note's nullifier was derived from its
// own spending key, tree, and leaf position — Poseidon(sk, tree, position)
// off-circuit in note.Nullifier, MiMC here per the same std/hash
// substitution used for compatibility elsewhere in the pack (see
// Manyfestation-native-assets-zk-poc's circuit.go).
func verifyNullifiers(api frontend.API, spendingKeys []frontend.Variable, treeNumber frontend.Variable, positions, nullifiers []frontend.Variable) error {
	for i := range spendingKeys {
		hFn, err := mimc.NewMiMC(api)
		if err != nil {
			return err
		}
		hFn.Write(spendingKeys[i], treeNumber, positions[i])
		api.AssertIsEqual(nullifiers[i], hFn.Sum())
	}
	return nil
}

// SmallCircuit is the 2-input, 3-output shielded ERC-20 spend circuit.
type SmallCircuit struct {
	PublicInputsHash frontend.Variable `gnark:",public"`

	commonFields
	RandomIn     [smallInputs]frontend.Variable
	ValuesIn     [smallInputs]frontend.Variable
	SpendingKeys [smallInputs]frontend.Variable
	Positions    [smallInputs]frontend.Variable
	Nullifiers   [smallInputs]frontend.Variable
	Proofs       [smallInputs]merkleProof

	RecipientPKX   [outputs]frontend.Variable
	RecipientPKY   [outputs]frontend.Variable
	RandomOut      [outputs]frontend.Variable
	ValuesOut      [outputs]frontend.Variable
	CommitmentsOut [outputs]frontend.Variable
}

func (c *SmallCircuit) Define(api frontend.API) error {
	return defineSpend(api, c.commonFields, c.PublicInputsHash,
		c.RandomIn[:], c.ValuesIn[:], c.SpendingKeys[:], c.Positions[:], c.Nullifiers[:], c.Proofs[:],
		c.RecipientPKX[:], c.RecipientPKY[:], c.RandomOut[:], c.ValuesOut[:], c.CommitmentsOut[:])
}

// LargeCircuit is the 10-input, 3-output shielded ERC-20 spend circuit,
// used once a spend needs more inputs than SmallCircuit's arity covers.
type LargeCircuit struct {
	PublicInputsHash frontend.Variable `gnark:",public"`

	commonFields
	RandomIn     [largeInputs]frontend.Variable
	ValuesIn     [largeInputs]frontend.Variable
	SpendingKeys [largeInputs]frontend.Variable
	Positions    [largeInputs]frontend.Variable
	Nullifiers   [largeInputs]frontend.Variable
	Proofs       [largeInputs]merkleProof

	RecipientPKX   [outputs]frontend.Variable
	RecipientPKY   [outputs]frontend.Variable
	RandomOut      [outputs]frontend.Variable
	ValuesOut      [outputs]frontend.Variable
	CommitmentsOut [outputs]frontend.Variable
}

func (c *LargeCircuit) Define(api frontend.API) error {
	return defineSpend(api, c.commonFields, c.PublicInputsHash,
		c.RandomIn[:], c.ValuesIn[:], c.SpendingKeys[:], c.Positions[:], c.Nullifiers[:], c.Proofs[:],
		c.RecipientPKX[:], c.RecipientPKY[:], c.RandomOut[:], c.ValuesOut[:], c.CommitmentsOut[:])
}

func defineSpend(
	api frontend.API,
	c commonFields,
	publicInputsHash frontend.Variable,
	randomIn, valuesIn, spendingKeys, positions, nullifiers []frontend.Variable,
	proofs []merkleProof,
	recipientPKX, recipientPKY, randomOut, valuesOut, commitmentsOut []frontend.Variable,
) error {
	hFn := utils.MiMCHasher
	for i := range proofs {
		proofs[i].verify(api, hFn, c.MerkleRoot)
	}
	if err := verifyNullifiers(api, spendingKeys, c.TreeNumber, positions, nullifiers); err != nil {
		return err
	}
	checkConservation(api, valuesIn, valuesOut, c.DepositAmount, c.WithdrawAmount)

	expected, err := hashPublicInputs(api, c, nullifiers, commitmentsOut)
	if err != nil {
		return err
	}
	api.AssertIsEqual(publicInputsHash, expected)
	return nil
}
