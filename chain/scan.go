package chain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/shieldwallet/shieldwallet/log"
	"github.com/shieldwallet/shieldwallet/types"
)

// LogFetcher is the subset of ethclient.Client the historical replay loop
// needs, narrowed to an interface so tests can drive it without a real
// node — mirroring web3/rpc.Web3Pool.connect's ethclient dependency
// without pulling in its multi-endpoint failover.
type LogFetcher interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// CommitmentBatch is one GeneratedCommitmentBatch/CommitmentBatch event,
// decoded and ready to feed into the merkle mirror and wallet scanner.
type CommitmentBatch struct {
	Tree        uint32
	StartPos    uint64
	Commitments [][32]byte
	Cleartext   bool
	BlockNumber uint64
}

// NullifierEvent is one Nullifier event.
type NullifierEvent struct {
	Nullifier   *big.Int
	BlockNumber uint64
}

// ScanResult is everything a chunked replay found, in block order.
type ScanResult struct {
	Batches     []CommitmentBatch
	Nullifiers  []NullifierEvent
	LastBlock   uint64
	ChunksTried int
}

func decodeCommitmentBatch(l ethtypes.Log, cleartext bool) (CommitmentBatch, error) {
	values, err := poolABI.Unpack(eventName(cleartext), l.Data)
	if err != nil {
		return CommitmentBatch{}, fmt.Errorf("chain: unpack commitment batch: %w", err)
	}
	tree, ok0 := values[0].(*big.Int)
	startPos, ok1 := values[1].(*big.Int)
	rawCommitments, ok2 := values[2].([]*big.Int)
	if !ok0 || !ok1 || !ok2 {
		return CommitmentBatch{}, fmt.Errorf("chain: unexpected commitment batch shape")
	}
	commitments := make([][32]byte, len(rawCommitments))
	for i, c := range rawCommitments {
		var buf [32]byte
		c.FillBytes(buf[:])
		commitments[i] = buf
	}
	return CommitmentBatch{
		Tree:        uint32(tree.Uint64()),
		StartPos:    startPos.Uint64(),
		Commitments: commitments,
		Cleartext:   cleartext,
		BlockNumber: l.BlockNumber,
	}, nil
}

func decodeNullifier(l ethtypes.Log) (NullifierEvent, error) {
	values, err := poolABI.Unpack("Nullifier", l.Data)
	if err != nil {
		return NullifierEvent{}, fmt.Errorf("chain: unpack nullifier: %w", err)
	}
	n, ok := values[0].(*big.Int)
	if !ok {
		return NullifierEvent{}, fmt.Errorf("chain: unexpected nullifier shape")
	}
	return NullifierEvent{Nullifier: n, BlockNumber: l.BlockNumber}, nil
}

func eventName(cleartext bool) string {
	if cleartext {
		return "GeneratedCommitmentBatch"
	}
	return "CommitmentBatch"
}

// retryBaseDelay is the unit backoff doubles from; tests shrink it to
// keep chunk-retry tests fast.
var retryBaseDelay = time.Second

// backoff returns the capped exponential delay for retry attempt n
// (0-indexed): base, 2*base, 4*base, 8*base, capped at 30*base.
func backoff(n int) time.Duration {
	d := retryBaseDelay << uint(n)
	maxBackoff := 30 * retryBaseDelay
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// fetchChunkWithRetry makes up to maxRetries attempts (the first try
// included) at a single [from, to] FilterLogs call, waiting a capped
// exponential backoff after each failure, per §4.I.
func fetchChunkWithRetry(ctx context.Context, fetcher LogFetcher, contract common.Address, from, to uint64, maxRetries int) ([]ethtypes.Log, error) {
	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{EventGeneratedCommitmentBatch, EventCommitmentBatch, EventNullifier}},
	}
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		logs, err := fetcher.FilterLogs(ctx, q)
		if err == nil {
			return logs, nil
		}
		lastErr = err
		log.Warnw("chain: chunk fetch failed, retrying", "from", from, "to", to, "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	return nil, fmt.Errorf("chain: chunk [%d,%d] failed after %d attempts: %w", from, to, maxRetries, lastErr)
}

// Scan replays contract's event log from cursor's last synced block up to
// the chain head, in chunkSize-block windows, advancing cursor after each
// chunk succeeds. It returns early (with the results gathered so far) if
// ctx is cancelled between chunks.
func Scan(ctx context.Context, fetcher LogFetcher, cursor Cursor, chainID uint32, contract common.Address, chunkSize uint64, maxRetries int) (*ScanResult, error) {
	if chunkSize == 0 {
		chunkSize = types.ScanChunkSize
	}
	if maxRetries <= 0 {
		maxRetries = types.MaxScanRetries
	}

	from, err := cursor.Load(chainID)
	if err != nil {
		return nil, fmt.Errorf("chain: load cursor: %w", err)
	}
	head, err := fetcher.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: block number: %w", err)
	}

	result := &ScanResult{LastBlock: from}
	for from <= head {
		select {
		case <-ctx.Done():
			return result, nil
		default:
		}

		to := from + chunkSize - 1
		if to > head {
			to = head
		}

		logs, err := fetchChunkWithRetry(ctx, fetcher, contract, from, to, maxRetries)
		result.ChunksTried++
		if err != nil {
			return result, err
		}

		for _, l := range logs {
			if len(l.Topics) == 0 {
				continue
			}
			switch l.Topics[0] {
			case EventGeneratedCommitmentBatch:
				b, err := decodeCommitmentBatch(l, true)
				if err != nil {
					log.Warnw("chain: skipping malformed generated commitment batch", "err", err)
					continue
				}
				result.Batches = append(result.Batches, b)
			case EventCommitmentBatch:
				b, err := decodeCommitmentBatch(l, false)
				if err != nil {
					log.Warnw("chain: skipping malformed commitment batch", "err", err)
					continue
				}
				result.Batches = append(result.Batches, b)
			case EventNullifier:
				n, err := decodeNullifier(l)
				if err != nil {
					log.Warnw("chain: skipping malformed nullifier event", "err", err)
					continue
				}
				result.Nullifiers = append(result.Nullifiers, n)
			}
		}

		if err := cursor.Store(chainID, to+1); err != nil {
			return result, fmt.Errorf("chain: persist cursor: %w", err)
		}
		result.LastBlock = to + 1
		from = to + 1
	}
	return result, nil
}

// Cursor persists the last synced block per chain, so a restarted scan
// resumes instead of replaying from genesis.
type Cursor interface {
	Load(chainID uint32) (uint64, error)
	Store(chainID uint32, block uint64) error
}

// DBCursor is a Cursor backed by the same go.vocdoni.io/dvote/db +
// prefixeddb store the merkle mirror uses, following its
// loadCount/storeCount persistence shape.
type DBCursor struct {
	db db.Database
}

// NewDBCursor opens a DBCursor over database.
func NewDBCursor(database db.Database) *DBCursor {
	return &DBCursor{db: database}
}

func cursorPrefix() []byte {
	return []byte("cs/")
}

func cursorKey(chainID uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, chainID)
	return buf
}

// Load returns the last synced block for chainID, or 0 if never scanned.
func (c *DBCursor) Load(chainID uint32) (uint64, error) {
	r := prefixeddb.NewPrefixedReader(c.db, cursorPrefix())
	v, err := r.Get(cursorKey(chainID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(v), nil
}

// Store persists block as chainID's last synced block.
func (c *DBCursor) Store(chainID uint32, block uint64) error {
	wTx := prefixeddb.NewPrefixedWriteTx(c.db.WriteTx(), cursorPrefix())
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, block)
	if err := wTx.Set(cursorKey(chainID), buf); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}
