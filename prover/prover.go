package prover

import (
	"encoding/json"
	"fmt"
	"math/big"

	rprover "github.com/iden3/go-rapidsnark/prover"
	rtypes "github.com/iden3/go-rapidsnark/types"
	rverifier "github.com/iden3/go-rapidsnark/verifier"
	"github.com/iden3/go-rapidsnark/witness"

	"github.com/shieldwallet/shieldwallet/txbuilder"
	"github.com/shieldwallet/shieldwallet/types"
)

// Proof is a Groth16 proof over BN254, in the on-chain verifier's swapped-B
// element ordering — never in the prover-native ordering once it leaves
// this package.
type Proof struct {
	A [2]*big.Int
	B [2][2]*big.Int
	C [2]*big.Int
}

// Prover drives witness generation and Groth16 proving/verification for
// both circuit arities.
type Prover struct {
	artifacts *ArtifactSet
}

// New builds a Prover over a loaded artifact set.
func New(artifacts *ArtifactSet) *Prover {
	return &Prover{artifacts: artifacts}
}

// assignment is the field-valued, decimal-string witness input the circom
// witness calculator expects, mirroring §4.G's ERC20PrivateInputs layout.
type assignment struct {
	AdaptIDHash      string      `json:"adaptIdHash"`
	TokenField       string      `json:"tokenField"`
	DepositAmount    string      `json:"depositAmount"`
	WithdrawAmount   string      `json:"withdrawAmount"`
	OutputTokenField string      `json:"outputTokenField"`
	OutputEthAddress string      `json:"outputEthAddress"`
	RandomIn         []string    `json:"randomIn"`
	ValuesIn         []string    `json:"valuesIn"`
	SpendingKeys     []string    `json:"spendingKeys"`
	TreeNumber       string      `json:"treeNumber"`
	MerkleRoot       string      `json:"merkleRoot"`
	Nullifiers       []string    `json:"nullifiers"`
	PathElements     [][]string  `json:"pathElements"`
	PathIndices      [][]string  `json:"pathIndices"`
	RecipientPK      [][2]string `json:"recipientPk"`
	RandomOut        []string    `json:"randomOut"`
	ValuesOut        []string    `json:"valuesOut"`
	CommitmentsOut   []string    `json:"commitmentsOut"`
	CiphertextHash   string      `json:"ciphertextHash"`
}

func decStr(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}

func bytesToDecStr(b []byte) string {
	return new(big.Int).SetBytes(b).String()
}

func buildAssignment(priv *txbuilder.ERC20PrivateInputs) assignment {
	randomIn := make([]string, len(priv.RandomIn))
	for i, r := range priv.RandomIn {
		randomIn[i] = bytesToDecStr(r[:])
	}
	valuesIn := make([]string, len(priv.ValuesIn))
	for i, v := range priv.ValuesIn {
		valuesIn[i] = decStr(v)
	}
	spendingKeys := make([]string, len(priv.SpendingKeys))
	for i, k := range priv.SpendingKeys {
		spendingKeys[i] = bytesToDecStr(k[:])
	}
	nullifiers := make([]string, len(priv.Nullifiers))
	for i, n := range priv.Nullifiers {
		nullifiers[i] = decStr(n)
	}
	pathElements := make([][]string, len(priv.PathElements))
	for i, elements := range priv.PathElements {
		row := make([]string, len(elements))
		for j, e := range elements {
			row[j] = bytesToDecStr(e)
		}
		pathElements[i] = row
	}
	pathIndices := make([][]string, len(priv.PathIndices))
	for i, indices := range priv.PathIndices {
		row := make([]string, len(indices))
		for j, idx := range indices {
			row[j] = fmt.Sprintf("%d", idx)
		}
		pathIndices[i] = row
	}
	recipientPK := make([][2]string, len(priv.RecipientPK))
	for i, pk := range priv.RecipientPK {
		recipientPK[i] = [2]string{decStr(pk[0]), decStr(pk[1])}
	}
	randomOut := make([]string, len(priv.RandomOut))
	for i, r := range priv.RandomOut {
		randomOut[i] = bytesToDecStr(r[:])
	}
	valuesOut := make([]string, len(priv.ValuesOut))
	for i, v := range priv.ValuesOut {
		valuesOut[i] = decStr(v)
	}
	commitmentsOut := make([]string, len(priv.CommitmentsOut))
	for i, c := range priv.CommitmentsOut {
		commitmentsOut[i] = decStr(c)
	}

	return assignment{
		AdaptIDHash:      decStr(priv.AdaptIDHash),
		TokenField:       decStr(priv.TokenField),
		DepositAmount:    decStr(priv.DepositAmount),
		WithdrawAmount:   decStr(priv.WithdrawAmount),
		OutputTokenField: decStr(priv.OutputTokenField),
		OutputEthAddress: decStr(priv.OutputEthAddress),
		RandomIn:         randomIn,
		ValuesIn:         valuesIn,
		SpendingKeys:     spendingKeys,
		TreeNumber:       fmt.Sprintf("%d", priv.TreeNumber),
		MerkleRoot:       decStr(priv.MerkleRoot),
		Nullifiers:       nullifiers,
		PathElements:     pathElements,
		PathIndices:      pathIndices,
		RecipientPK:      recipientPK,
		RandomOut:        randomOut,
		ValuesOut:        valuesOut,
		CommitmentsOut:   commitmentsOut,
		CiphertextHash:   decStr(priv.CiphertextHash),
	}
}

// snarkProof is the snarkjs-style JSON shape prover.Groth16ProverRaw
// returns: three-element affine coordinates (the third is the projective
// "1"), decimal-string encoded.
type snarkProof struct {
	PiA []string   `json:"pi_a"`
	PiB [][]string `json:"pi_b"`
	PiC []string   `json:"pi_c"`
}

func parseSnarkProof(raw string) (Proof, error) {
	var sp snarkProof
	if err := json.Unmarshal([]byte(raw), &sp); err != nil {
		return Proof{}, fmt.Errorf("prover: parse proof json: %w", err)
	}
	if len(sp.PiA) < 2 || len(sp.PiB) < 2 || len(sp.PiB[0]) < 2 || len(sp.PiB[1]) < 2 || len(sp.PiC) < 2 {
		return Proof{}, fmt.Errorf("prover: malformed proof json")
	}
	toInt := func(s string) (*big.Int, error) {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("prover: bad field element %q", s)
		}
		return n, nil
	}

	a0, err := toInt(sp.PiA[0])
	if err != nil {
		return Proof{}, err
	}
	a1, err := toInt(sp.PiA[1])
	if err != nil {
		return Proof{}, err
	}
	b00, err := toInt(sp.PiB[0][0])
	if err != nil {
		return Proof{}, err
	}
	b01, err := toInt(sp.PiB[0][1])
	if err != nil {
		return Proof{}, err
	}
	b10, err := toInt(sp.PiB[1][0])
	if err != nil {
		return Proof{}, err
	}
	b11, err := toInt(sp.PiB[1][1])
	if err != nil {
		return Proof{}, err
	}
	c0, err := toInt(sp.PiC[0])
	if err != nil {
		return Proof{}, err
	}
	c1, err := toInt(sp.PiC[1])
	if err != nil {
		return Proof{}, err
	}

	return Proof{
		A: [2]*big.Int{a0, a1},
		B: [2][2]*big.Int{{b00, b01}, {b10, b11}},
		C: [2]*big.Int{c0, c1},
	}, nil
}

// swapInnerPair swaps the inner coordinate pair of each B row. Applying it
// twice is the identity, so the same function both swaps (on prove) and
// un-swaps (on verify).
func swapInnerPair(b [2][2]*big.Int) [2][2]*big.Int {
	return [2][2]*big.Int{
		{b[0][1], b[0][0]},
		{b[1][1], b[1][0]},
	}
}

func toProofData(p Proof) *rtypes.ProofData {
	return &rtypes.ProofData{
		A:        []string{p.A[0].String(), p.A[1].String(), "1"},
		B:        [][]string{{p.B[0][0].String(), p.B[0][1].String()}, {p.B[1][0].String(), p.B[1][1].String()}, {"1", "0"}},
		C:        []string{p.C[0].String(), p.C[1].String(), "1"},
		Protocol: "groth16",
	}
}

// Prove generates a Groth16 proof for priv under circuit, self-verifying
// before returning. It returns the proof (with B already swapped to the
// on-chain verifier's convention) and the single public input the circuit
// exposes.
func (p *Prover) Prove(circuit txbuilder.Circuit, priv *txbuilder.ERC20PrivateInputs) (*Proof, *big.Int, error) {
	art := p.artifacts.For(circuit)

	inputsJSON, err := json.Marshal(buildAssignment(priv))
	if err != nil {
		return nil, nil, fmt.Errorf("prover: marshal assignment: %w", err)
	}
	finalInputs, err := witness.ParseInputs(inputsJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("prover: parse inputs: %w", err)
	}
	calc, err := witness.NewCircom2WitnessCalculator(art.WASM.Content, true)
	if err != nil {
		return nil, nil, fmt.Errorf("prover: witness calculator: %w", err)
	}
	wtns, err := calc.CalculateWTNSBin(finalInputs, true)
	if err != nil {
		return nil, nil, fmt.Errorf("prover: calculate witness: %w", err)
	}
	proofJSON, _, err := rprover.Groth16ProverRaw(art.ZKey.Content, wtns)
	if err != nil {
		return nil, nil, fmt.Errorf("prover: groth16 prove: %w", err)
	}
	rawProof, err := parseSnarkProof(proofJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("prover: %w", err)
	}

	proof := &Proof{
		A: rawProof.A,
		B: swapInnerPair(rawProof.B),
		C: rawProof.C,
	}

	pub := priv.Public()
	hashOfInputs := txbuilder.HashOfInputs(pub)

	ok, err := p.Verify(circuit, pub, proof)
	if err != nil {
		return nil, nil, fmt.Errorf("prover: self-verify: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("prover: self-verify mismatch: %w", types.ErrProofGenFailed)
	}
	return proof, hashOfInputs, nil
}

// Verify re-derives hashOfInputs from pub (never trusting an externally
// supplied hash), un-swaps proof's B back to the prover-native order, and
// checks it against the circuit's verification key.
func (p *Prover) Verify(circuit txbuilder.Circuit, pub *txbuilder.PublicInputs, proof *Proof) (bool, error) {
	art := p.artifacts.For(circuit)
	hashOfInputs := txbuilder.HashOfInputs(pub)

	nativeOrder := Proof{
		A: proof.A,
		B: swapInnerPair(proof.B),
		C: proof.C,
	}
	zkProof := rtypes.ZKProof{
		Proof:      toProofData(nativeOrder),
		PubSignals: []string{hashOfInputs.String()},
	}

	ok, err := rverifier.VerifyGroth16(zkProof, []string{hashOfInputs.String()}, art.VKey.Content)
	if err != nil {
		return false, fmt.Errorf("prover: groth16 verify: %w", err)
	}
	return ok, nil
}
