package txbuilder

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/shieldwallet/shieldwallet/crypto/babyjub"
	"github.com/shieldwallet/shieldwallet/keys"
	"github.com/shieldwallet/shieldwallet/merkle"
	"github.com/shieldwallet/shieldwallet/note"
	"github.com/shieldwallet/shieldwallet/types"
	"github.com/shieldwallet/shieldwallet/wallet"
)

const chainID = 1

func testSetup(t *testing.T) (*Builder, *wallet.Wallet, *keys.HDWallet) {
	mnemonic, err := keys.GenerateMnemonic()
	qt.Assert(t, err, qt.IsNil)
	hd, err := keys.NewFromMnemonic(mnemonic, "")
	qt.Assert(t, err, qt.IsNil)

	db := metadb.NewTest(t)
	mirror := merkle.NewMirror(db)
	w := wallet.New(hd, mirror, db, 5)
	return New(w, mirror, hd), w, hd
}

// deposit derives the (chain, index) key, builds a note in that wallet's
// own name, and scans it into tree at position so it lands as a real,
// selectable TXO.
func deposit(t *testing.T, w *wallet.Wallet, hd *keys.HDWallet, tree uint32, position uint64, index uint32, amount int64, token [32]byte) {
	c := qt.New(t)
	sk, err := hd.DeriveKey(keys.ChainPrimary, index)
	c.Assert(err, qt.IsNil)
	pub := babyjub.PrivateToPublic(sk)

	ephemeralSk := babyjub.RandomPrivateKey()
	ephemeralPub := babyjub.PrivateToPublic(ephemeralSk).Pack()
	shared, err := babyjub.ECDH(ephemeralSk, pub)
	c.Assert(err, qt.IsNil)

	var random [16]byte
	copy(random[:], []byte("0123456789abcdef"))
	n, err := note.New(pub.Pack(), random, big.NewInt(amount), token)
	c.Assert(err, qt.IsNil)

	ct, err := n.Encrypt(shared)
	c.Assert(err, qt.IsNil)
	commitment, err := n.Commitment()
	c.Assert(err, qt.IsNil)

	leaf := wallet.IncomingLeaf{
		Position:        position,
		Commitment:      commitment.Bytes32(),
		EphemeralPubKey: ephemeralPub,
		Ciphertext:      ct,
	}
	res, err := w.Scan(chainID, tree, []wallet.IncomingLeaf{leaf})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Matched, qt.Equals, 1)
}

func testToken(b byte) [32]byte {
	var t [32]byte
	t[31] = b
	return t
}

func TestBuildPicksSmallCircuitForTwoInputs(t *testing.T) {
	c := qt.New(t)
	b, w, hd := testSetup(t)
	token := testToken(1)

	deposit(t, w, hd, 0, 0, 0, 600, token)
	deposit(t, w, hd, 0, 1, 1, 500, token)

	recipientSk := babyjub.RandomPrivateKey()
	recipientPub := babyjub.PrivateToPublic(recipientSk).Pack()

	req := BuildRequest{
		ChainID: chainID,
		Token:   token,
		Outputs: []OutputRequest{{PubKey: recipientPub, Amount: big.NewInt(1000), Token: token}},
	}

	circuit, priv, pub, err := b.Build(req)
	c.Assert(err, qt.IsNil)
	c.Assert(circuit, qt.Equals, CircuitSmall)
	c.Assert(priv.Nullifiers, qt.HasLen, types.SmallCircuitInputs)
	c.Assert(priv.Nullifiers[0].Cmp(priv.Nullifiers[1]), qt.Not(qt.Equals), 0)
	c.Assert(pub.Sign() > 0, qt.IsTrue)

	// the derived public input must match the one recomputed purely from
	// the witness's public subset.
	rehashed := HashOfInputs(priv.Public())
	c.Assert(rehashed.Cmp(pub), qt.Equals, 0)
}

func TestBuildNeedsConsolidationBeyondLargeArity(t *testing.T) {
	c := qt.New(t)
	b, w, hd := testSetup(t)
	token := testToken(2)

	// 11 equal notes of 100: covering a required of 1050 needs all 11,
	// which exceeds the large circuit's 10-input arity.
	for i := uint32(0); i < 11; i++ {
		deposit(t, w, hd, 0, uint64(i), i, 100, token)
	}

	recipientSk := babyjub.RandomPrivateKey()
	recipientPub := babyjub.PrivateToPublic(recipientSk).Pack()

	req := BuildRequest{
		ChainID: chainID,
		Token:   token,
		Outputs: []OutputRequest{{PubKey: recipientPub, Amount: big.NewInt(1050), Token: token}},
	}

	_, _, _, err := b.Build(req)
	c.Assert(err, qt.ErrorIs, types.ErrNeedsConsolidation)
}

func TestBuildWithdrawMisconfigFailsBeforeSelection(t *testing.T) {
	c := qt.New(t)
	b, _, _ := testSetup(t)
	token := testToken(3)

	req := BuildRequest{
		ChainID:  chainID,
		Token:    token,
		Withdraw: big.NewInt(100),
		// WithdrawAddress intentionally left nil.
	}

	_, _, _, err := b.Build(req)
	c.Assert(err, qt.ErrorIs, types.ErrWithdrawConfig)
}

func TestBuildTooManyOutputsFails(t *testing.T) {
	c := qt.New(t)
	b, _, _ := testSetup(t)
	token := testToken(4)

	req := BuildRequest{
		ChainID: chainID,
		Token:   token,
		Outputs: []OutputRequest{
			{Amount: big.NewInt(1), Token: token},
			{Amount: big.NewInt(1), Token: token},
			{Amount: big.NewInt(1), Token: token},
		},
	}

	_, _, _, err := b.Build(req)
	c.Assert(err, qt.ErrorIs, types.ErrTooManyOutputs)
}

func TestBuildTokenMismatchFails(t *testing.T) {
	c := qt.New(t)
	b, _, _ := testSetup(t)
	token := testToken(5)
	other := testToken(6)

	req := BuildRequest{
		ChainID: chainID,
		Token:   token,
		Outputs: []OutputRequest{{Amount: big.NewInt(1), Token: other}},
	}

	_, _, _, err := b.Build(req)
	c.Assert(err, qt.ErrorIs, types.ErrTokenMismatch)
}

func TestBuildDepositOnlyNeedsNoRealInputs(t *testing.T) {
	c := qt.New(t)
	b, _, _ := testSetup(t)
	token := testToken(7)

	recipientSk := babyjub.RandomPrivateKey()
	recipientPub := babyjub.PrivateToPublic(recipientSk).Pack()

	req := BuildRequest{
		ChainID: chainID,
		Token:   token,
		Deposit: big.NewInt(500),
		Outputs: []OutputRequest{{PubKey: recipientPub, Amount: big.NewInt(500), Token: token}},
	}

	circuit, priv, _, err := b.Build(req)
	c.Assert(err, qt.IsNil)
	c.Assert(circuit, qt.Equals, CircuitSmall)
	// every nullifier still comes from a (dummy) spending key, but with no
	// wallet UTXOs at all the build must not fail InsufficientBalance.
	c.Assert(priv.Nullifiers, qt.HasLen, types.SmallCircuitInputs)
}

func TestBuildInsufficientBalanceFails(t *testing.T) {
	c := qt.New(t)
	b, w, hd := testSetup(t)
	token := testToken(8)

	deposit(t, w, hd, 0, 0, 0, 10, token)

	recipientSk := babyjub.RandomPrivateKey()
	recipientPub := babyjub.PrivateToPublic(recipientSk).Pack()

	req := BuildRequest{
		ChainID: chainID,
		Token:   token,
		Outputs: []OutputRequest{{PubKey: recipientPub, Amount: big.NewInt(1000), Token: token}},
	}

	_, _, _, err := b.Build(req)
	c.Assert(err, qt.ErrorIs, types.ErrInsufficientBalance)
}
