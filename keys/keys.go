// Package keys derives the wallet's Baby-Jubjub keypairs from a single
// BIP-39 mnemonic, hierarchically, the way a standard HD wallet derives
// secp256k1 keys: github.com/tyler-smith/go-bip39 turns the mnemonic into a
// seed, github.com/btcsuite/btcutil/hdkeychain walks a fully-hardened
// derivation path over that seed, and each leaf's secp256k1 scalar is
// folded into a Baby-Jubjub private key via crypto/babyjub. No pack
// example derives hierarchical keys (the teacher's circuits generate flat
// random test keys), so this package's shape is new; the libraries are the
// de facto standard Go implementations of BIP-39/BIP-32 and sit naturally
// next to the bech32 dependency already pulled in by address.
package keys

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/tyler-smith/go-bip39"

	"github.com/shieldwallet/shieldwallet/crypto/babyjub"
	"github.com/shieldwallet/shieldwallet/types"
)

// Chain selects which sub-path a key is derived under.
const (
	ChainPrimary uint32 = 0
	ChainChange  uint32 = 1
)

// GenerateMnemonic returns a fresh 12-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", fmt.Errorf("keys: entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

func parsePath(path string) ([]uint32, error) {
	path = strings.TrimPrefix(path, "m/")
	if path == "" {
		return nil, nil
	}
	segments := strings.Split(path, "/")
	indices := make([]uint32, len(segments))
	for i, seg := range segments {
		seg = strings.TrimSuffix(seg, "'")
		n, err := strconv.ParseUint(seg, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("keys: bad derivation path segment %q: %w", seg, err)
		}
		indices[i] = uint32(n)
	}
	return indices, nil
}

// HDWallet is a hierarchical Baby-Jubjub keypair source rooted at
// types.DefaultDerivationRoot. Every level, including the per-key index,
// is derived hardened: this wallet never needs watch-only xpub derivation.
type HDWallet struct {
	root *hdkeychain.ExtendedKey

	mu     sync.Mutex
	chains map[uint32]*hdkeychain.ExtendedKey
}

// NewFromMnemonic validates mnemonic and builds an HDWallet rooted at
// types.DefaultDerivationRoot.
func NewFromMnemonic(mnemonic, passphrase string) (*HDWallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("keys: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return newFromSeed(seed)
}

func newFromSeed(seed []byte) (*HDWallet, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("keys: new master: %w", err)
	}
	rootPath, err := parsePath(types.DefaultDerivationRoot)
	if err != nil {
		return nil, err
	}
	root := master
	for _, idx := range rootPath {
		root, err = root.Child(hdkeychain.HardenedKeyStart + idx)
		if err != nil {
			return nil, fmt.Errorf("keys: derive root path: %w", err)
		}
	}
	return &HDWallet{root: root, chains: make(map[uint32]*hdkeychain.ExtendedKey)}, nil
}

func (w *HDWallet) chainNode(chain uint32) (*hdkeychain.ExtendedKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if node, ok := w.chains[chain]; ok {
		return node, nil
	}
	node, err := w.root.Child(hdkeychain.HardenedKeyStart + chain)
	if err != nil {
		return nil, fmt.Errorf("keys: derive chain %d: %w", chain, err)
	}
	w.chains[chain] = node
	return node, nil
}

// DeriveKey returns the Baby-Jubjub private key at (chain, index).
func (w *HDWallet) DeriveKey(chain, index uint32) (babyjub.PrivateKey, error) {
	node, err := w.chainNode(chain)
	if err != nil {
		return babyjub.PrivateKey{}, err
	}
	child, err := node.Child(hdkeychain.HardenedKeyStart + index)
	if err != nil {
		return babyjub.PrivateKey{}, fmt.Errorf("keys: derive index %d on chain %d: %w", index, chain, err)
	}
	ecKey, err := child.ECPrivKey()
	if err != nil {
		return babyjub.PrivateKey{}, fmt.Errorf("keys: ec priv key: %w", err)
	}
	return babyjub.NewPrivateKeyFromSeed(ecKey.Serialize()), nil
}

// PrimaryKey returns the index-th key on the receive chain.
func (w *HDWallet) PrimaryKey(index uint32) (babyjub.PrivateKey, error) {
	return w.DeriveKey(ChainPrimary, index)
}

// ChangeKey returns the index-th key on the change chain.
func (w *HDWallet) ChangeKey(index uint32) (babyjub.PrivateKey, error) {
	return w.DeriveKey(ChainChange, index)
}

// ViewKey derives the wallet's sender-audit view key from the first
// primary key, letting a holder prove authorship of outputs it sent
// without revealing its spending key.
func (w *HDWallet) ViewKey() ([32]byte, error) {
	sk, err := w.PrimaryKey(0)
	if err != nil {
		return [32]byte{}, fmt.Errorf("keys: view key: %w", err)
	}
	return sha256.Sum256(sk[:]), nil
}
