package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/shieldwallet/shieldwallet/prover"
	"github.com/shieldwallet/shieldwallet/txbuilder"
)

func init() {
	retryBaseDelay = time.Millisecond
}

func TestEncodeGenerateDepositRoundTrips(t *testing.T) {
	c := qt.New(t)
	deposits := []DepositInput{{
		PubKey: [2]*big.Int{big.NewInt(1), big.NewInt(2)},
		Random: big.NewInt(3),
		Amount: big.NewInt(1000),
		Token:  new(big.Int).SetBytes(common.HexToAddress("0xabc").Bytes()),
	}}
	data, err := EncodeGenerateDeposit(deposits)
	c.Assert(err, qt.IsNil)
	c.Assert(len(data) > 4, qt.IsTrue)

	values, err := poolABI.Methods["generateDeposit"].Inputs.Unpack(data[4:])
	c.Assert(err, qt.IsNil)
	c.Assert(values, qt.HasLen, 1)
}

func TestEncodeTransactRoundTrips(t *testing.T) {
	c := qt.New(t)
	spends := []SpendInput{{
		Proof: &prover.Proof{
			A: [2]*big.Int{big.NewInt(1), big.NewInt(2)},
			B: [2][2]*big.Int{{big.NewInt(3), big.NewInt(4)}, {big.NewInt(5), big.NewInt(6)}},
			C: [2]*big.Int{big.NewInt(7), big.NewInt(8)},
		},
		Priv: &txbuilder.ERC20PrivateInputs{
			AdaptIDHash:    big.NewInt(0),
			TokenField:     big.NewInt(9),
			DepositAmount:  big.NewInt(0),
			WithdrawAmount: big.NewInt(0),
			MerkleRoot:     big.NewInt(10),
			Nullifiers:     []*big.Int{big.NewInt(11)},
			OutputCommitments: []txbuilder.OutputCommitment{{
				Commitment:   [32]byte{1},
				SenderPubKey: [32]byte{2},
				CiphertextIV: [16]byte{3},
				Ciphertext:   []byte("hello world this is ciphertext!"),
				RevealKeyIV:  [16]byte{4},
				RevealKey:    []byte("reveal"),
			}},
		},
		AdaptID: txbuilder.AdaptID{},
	}}
	data, err := EncodeTransact(spends)
	c.Assert(err, qt.IsNil)
	c.Assert(len(data) > 4, qt.IsTrue)

	values, err := poolABI.Methods["transact"].Inputs.Unpack(data[4:])
	c.Assert(err, qt.IsNil)
	c.Assert(values, qt.HasLen, 1)
}

func TestBytesToFieldsPacksIVAndData(t *testing.T) {
	c := qt.New(t)
	iv := [16]byte{1, 2, 3}
	data := make([]byte, 40)
	fields := bytesToFields(iv, data)
	// 16 (iv) + 40 (data) = 56 bytes -> 2 32-byte words.
	c.Assert(fields, qt.HasLen, 2)
}

func TestDBCursorRoundTrips(t *testing.T) {
	c := qt.New(t)
	cur := NewDBCursor(metadb.NewTest(t))

	block, err := cur.Load(1)
	c.Assert(err, qt.IsNil)
	c.Assert(block, qt.Equals, uint64(0))

	c.Assert(cur.Store(1, 500), qt.IsNil)
	block, err = cur.Load(1)
	c.Assert(err, qt.IsNil)
	c.Assert(block, qt.Equals, uint64(500))

	// Independent chains don't collide.
	block2, err := cur.Load(2)
	c.Assert(err, qt.IsNil)
	c.Assert(block2, qt.Equals, uint64(0))
}

// fakeFetcher drives Scan without a live node: the first failUpTo
// FilterLogs calls fail so tests can inject transient failures, and logs
// is keyed by each chunk's [from, to] block range so tests can serve
// specific logs per chunk.
type fakeFetcher struct {
	head     uint64
	calls    int
	failUpTo int
	logs     map[[2]uint64][]ethtypes.Log
}

func (f *fakeFetcher) BlockNumber(ctx context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeFetcher) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	f.calls++
	if f.calls <= f.failUpTo {
		return nil, errors.New("transient rpc error")
	}
	key := [2]uint64{q.FromBlock.Uint64(), q.ToBlock.Uint64()}
	return f.logs[key], nil
}

func commitmentLog(tree, startPos uint64, commitments []*big.Int, cleartext bool, block uint64) ethtypes.Log {
	name := "CommitmentBatch"
	if cleartext {
		name = "GeneratedCommitmentBatch"
	}
	data, err := poolABI.Events[name].Inputs.NonIndexed().Pack(new(big.Int).SetUint64(tree), new(big.Int).SetUint64(startPos), commitments)
	if err != nil {
		panic(err)
	}
	topic := EventCommitmentBatch
	if cleartext {
		topic = EventGeneratedCommitmentBatch
	}
	return ethtypes.Log{Topics: []common.Hash{topic}, Data: data, BlockNumber: block}
}

func nullifierLog(n *big.Int, block uint64) ethtypes.Log {
	data, err := poolABI.Events["Nullifier"].Inputs.NonIndexed().Pack(n)
	if err != nil {
		panic(err)
	}
	return ethtypes.Log{Topics: []common.Hash{EventNullifier}, Data: data, BlockNumber: block}
}

func TestScanChunksAndAdvancesCursor(t *testing.T) {
	c := qt.New(t)
	fetcher := &fakeFetcher{
		head: 1200,
		logs: map[[2]uint64][]ethtypes.Log{
			{0, 499}: {commitmentLog(0, 0, []*big.Int{big.NewInt(1)}, true, 10)},
			{500, 999}: {nullifierLog(big.NewInt(1), 600)},
			{1000, 1200}: {},
		},
	}
	cur := NewDBCursor(metadb.NewTest(t))
	contract := common.HexToAddress("0x1234")

	result, err := Scan(context.Background(), fetcher, cur, 1, contract, 500, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(result.ChunksTried, qt.Equals, 3)
	c.Assert(result.Batches, qt.HasLen, 1)
	c.Assert(result.Nullifiers, qt.HasLen, 1)
	c.Assert(result.LastBlock, qt.Equals, uint64(1201))

	persisted, err := cur.Load(1)
	c.Assert(err, qt.IsNil)
	c.Assert(persisted, qt.Equals, uint64(1201))
}

func TestScanOrdersCommitmentsBeforeLaterNullifiers(t *testing.T) {
	c := qt.New(t)
	fetcher := &fakeFetcher{
		head: 499,
		logs: map[[2]uint64][]ethtypes.Log{
			{0, 499}: {
				commitmentLog(0, 0, []*big.Int{big.NewInt(1)}, true, 5),
				nullifierLog(big.NewInt(1), 20),
			},
		},
	}
	cur := NewDBCursor(metadb.NewTest(t))
	result, err := Scan(context.Background(), fetcher, cur, 1, common.HexToAddress("0x1"), 500, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Batches, qt.HasLen, 1)
	c.Assert(result.Nullifiers, qt.HasLen, 1)
	c.Assert(result.Batches[0].BlockNumber < result.Nullifiers[0].BlockNumber, qt.IsTrue)
}

func TestScanRetriesTransientFailures(t *testing.T) {
	c := qt.New(t)
	fetcher := &fakeFetcher{
		head:     499,
		failUpTo: 2,
		logs: map[[2]uint64][]ethtypes.Log{
			{0, 499}: {},
		},
	}
	cur := NewDBCursor(metadb.NewTest(t))
	_, err := Scan(context.Background(), fetcher, cur, 1, common.HexToAddress("0x1"), 500, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(fetcher.calls, qt.Equals, 3)
}

func TestScanFailsAfterMaxRetries(t *testing.T) {
	c := qt.New(t)
	fetcher := &fakeFetcher{head: 499, failUpTo: 10}
	cur := NewDBCursor(metadb.NewTest(t))
	_, err := Scan(context.Background(), fetcher, cur, 1, common.HexToAddress("0x1"), 500, 3)
	c.Assert(err, qt.IsNotNil)
}

func TestScanStopsBetweenChunksOnCancellation(t *testing.T) {
	c := qt.New(t)
	fetcher := &fakeFetcher{
		head: 1999,
		logs: map[[2]uint64][]ethtypes.Log{
			{0, 499}:    {},
			{500, 999}:  {},
			{1000, 1499}: {},
			{1500, 1999}: {},
		},
	}
	cur := NewDBCursor(metadb.NewTest(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Scan(ctx, fetcher, cur, 1, common.HexToAddress("0x1"), 500, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(result.ChunksTried, qt.Equals, 0)
}
