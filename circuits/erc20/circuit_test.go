package erc20

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
)

type testConservationCircuit struct {
	ValuesIn  [2]frontend.Variable
	ValuesOut [3]frontend.Variable
	Deposit   frontend.Variable
	Withdraw  frontend.Variable
}

func (c *testConservationCircuit) Define(api frontend.API) error {
	checkConservation(api, c.ValuesIn[:], c.ValuesOut[:], c.Deposit, c.Withdraw)
	return nil
}

func TestCheckConservationBalances(t *testing.T) {
	assert := test.NewAssert(t)
	assignment := &testConservationCircuit{
		ValuesIn:  [2]frontend.Variable{600, 500},
		ValuesOut: [3]frontend.Variable{1000, 100, 0},
		Deposit:   0,
		Withdraw:  0,
	}
	assert.SolvingSucceeded(&testConservationCircuit{}, assignment)
}

func TestCheckConservationRejectsImbalance(t *testing.T) {
	assert := test.NewAssert(t)
	assignment := &testConservationCircuit{
		ValuesIn:  [2]frontend.Variable{600, 500},
		ValuesOut: [3]frontend.Variable{1000, 200, 0},
		Deposit:   0,
		Withdraw:  0,
	}
	assert.SolvingFailed(&testConservationCircuit{}, assignment)
}

func TestCheckConservationCountsDepositAndWithdraw(t *testing.T) {
	assert := test.NewAssert(t)
	assignment := &testConservationCircuit{
		ValuesIn:  [2]frontend.Variable{100, 0},
		ValuesOut: [3]frontend.Variable{50, 0, 0},
		Deposit:   500,
		Withdraw:  550,
	}
	assert.SolvingSucceeded(&testConservationCircuit{}, assignment)
}

type testNullifierCircuit struct {
	SpendingKeys [2]frontend.Variable
	TreeNumber   frontend.Variable
	Positions    [2]frontend.Variable
	Nullifiers   [2]frontend.Variable
}

func (c *testNullifierCircuit) Define(api frontend.API) error {
	return verifyNullifiers(api, c.SpendingKeys[:], c.TreeNumber, c.Positions[:], c.Nullifiers[:])
}

// nativeNullifier computes off-circuit what verifyNullifiers checks
// in-circuit: MiMC(spendingKey, treeNumber, position) over the BN254
// scalar field.
func nativeNullifier(t *testing.T, sk, tree, position int64) *big.Int {
	t.Helper()
	h := mimc.NewMiMC()
	var buf [32]byte
	for _, v := range []int64{sk, tree, position} {
		new(big.Int).SetInt64(v).FillBytes(buf[:])
		h.Write(buf[:])
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

func TestVerifyNullifiersAcceptsCorrectDerivation(t *testing.T) {
	c := qt.New(t)
	assert := test.NewAssert(t)
	n0 := nativeNullifier(t, 11, 0, 0)
	n1 := nativeNullifier(t, 22, 0, 1)
	c.Assert(n0.Cmp(n1), qt.Not(qt.Equals), 0)

	assignment := &testNullifierCircuit{
		SpendingKeys: [2]frontend.Variable{11, 22},
		TreeNumber:   0,
		Positions:    [2]frontend.Variable{0, 1},
		Nullifiers:   [2]frontend.Variable{n0, n1},
	}
	assert.SolvingSucceeded(&testNullifierCircuit{}, assignment)
}

func TestVerifyNullifiersRejectsWrongKey(t *testing.T) {
	assert := test.NewAssert(t)
	n0 := nativeNullifier(t, 11, 0, 0)
	n1 := nativeNullifier(t, 22, 0, 1)

	assignment := &testNullifierCircuit{
		SpendingKeys: [2]frontend.Variable{99, 22},
		TreeNumber:   0,
		Positions:    [2]frontend.Variable{0, 1},
		Nullifiers:   [2]frontend.Variable{n0, n1},
	}
	assert.SolvingFailed(&testNullifierCircuit{}, assignment)
}
