// Package note implements the shielded ERC-20 note: commitment/nullifier
// derivation, symmetric encryption, and canonical serialization. The
// commitment/serialization shape follows state.State's leaf-hashing pattern
// in the teacher (Poseidon over a canonical field tuple), and serialization
// follows storage/helpers.go's CBOR encodeArtifact/decodeArtifact
// convention.
package note

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/shieldwallet/shieldwallet/crypto/aesctr"
	"github.com/shieldwallet/shieldwallet/crypto/babyjub"
	"github.com/shieldwallet/shieldwallet/crypto/field"
	"github.com/shieldwallet/shieldwallet/crypto/hash"
	"github.com/shieldwallet/shieldwallet/types"
)

// maxAmount is the exclusive upper bound on a note's amount (2^120).
var maxAmount = new(big.Int).Lsh(big.NewInt(1), 120)

// Note is a single shielded ERC-20 UTXO.
type Note struct {
	PubKey [32]byte `cbor:"0,keyasint"` // packed Baby-Jubjub recipient key
	Random [16]byte `cbor:"1,keyasint"` // per-note nonce
	Amount *big.Int `cbor:"2,keyasint"` // < 2^120
	Token  [32]byte `cbor:"3,keyasint"` // left-padded ERC-20 contract address
}

// New builds a note, validating the amount range.
func New(pubkey [32]byte, random [16]byte, amount *big.Int, token [32]byte) (*Note, error) {
	if amount == nil || amount.Sign() < 0 || amount.Cmp(maxAmount) >= 0 {
		return nil, fmt.Errorf("note: amount out of range: %w", types.ErrMalformedNote)
	}
	return &Note{PubKey: pubkey, Random: random, Amount: new(big.Int).Set(amount), Token: token}, nil
}

// Commitment computes C = Poseidon(pubkey.x, pubkey.y, amount, random, token).
func (n *Note) Commitment() (field.Element, error) {
	pk, err := babyjub.Unpack(n.PubKey)
	if err != nil {
		return field.Element{}, fmt.Errorf("note: commitment: %w", err)
	}
	return hash.Poseidon(
		field.FromBigInt(pk.X),
		field.FromBigInt(pk.Y),
		field.FromBigInt(n.Amount),
		field.FromBytes(n.Random[:]),
		field.FromBytes(n.Token[:]),
	)
}

// Nullifier computes N = Poseidon(privateKey, treeIndex, leafPosition),
// binding a spend to a specific leaf position.
func Nullifier(privateKey [32]byte, treeIndex, leafPosition uint64) (field.Element, error) {
	return hash.Poseidon(
		field.FromBytes(privateKey[:]),
		field.FromUint64(treeIndex),
		field.FromUint64(leafPosition),
	)
}

// Encrypt encrypts the note under sharedKey as a single AES-256-CTR stream
// over three concatenated 32-byte blocks: pubkey, random||amount (16+16),
// token. The block layout is load-bearing wire format, not an
// implementation detail — it MUST match Decrypt exactly.
func (n *Note) Encrypt(sharedKey [32]byte) (aesctr.Ciphertext, error) {
	plaintext := make([]byte, 96)
	copy(plaintext[0:32], n.PubKey[:])
	copy(plaintext[32:48], n.Random[:])
	amountBytes := n.Amount.Bytes()
	copy(plaintext[64-len(amountBytes):64], amountBytes)
	copy(plaintext[64:96], n.Token[:])

	return aesctr.Encrypt(plaintext, sharedKey[:])
}

// Decrypt inverts Encrypt, failing ErrMalformedNote if the recovered fields
// violate their declared ranges.
func Decrypt(ct aesctr.Ciphertext, sharedKey [32]byte) (*Note, error) {
	plaintext, err := aesctr.Decrypt(ct, sharedKey[:])
	if err != nil {
		return nil, fmt.Errorf("note: decrypt: %w", err)
	}
	if len(plaintext) != 96 {
		return nil, fmt.Errorf("note: decrypt: wrong plaintext length %d: %w", len(plaintext), types.ErrMalformedNote)
	}

	var n Note
	copy(n.PubKey[:], plaintext[0:32])
	copy(n.Random[:], plaintext[32:48])
	n.Amount = new(big.Int).SetBytes(plaintext[48:64])
	copy(n.Token[:], plaintext[64:96])

	if n.Amount.Cmp(maxAmount) >= 0 {
		return nil, fmt.Errorf("note: decrypt: amount out of range: %w", types.ErrMalformedNote)
	}
	return &n, nil
}

// serialForm is the canonical CBOR wire shape; when withPubkey is false the
// pubkey is omitted (the caller already knows which key derived the note).
type serialForm struct {
	PubKey *[32]byte `cbor:"0,keyasint,omitempty"`
	Random [16]byte  `cbor:"1,keyasint"`
	Amount *big.Int  `cbor:"2,keyasint"`
	Token  [32]byte  `cbor:"3,keyasint"`
}

// Serialize returns the canonical in-memory/db encoding of n.
func (n *Note) Serialize(withPubkey bool) ([]byte, error) {
	sf := serialForm{Random: n.Random, Amount: n.Amount, Token: n.Token}
	if withPubkey {
		pk := n.PubKey
		sf.PubKey = &pk
	}
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("note: serialize: %w", err)
	}
	return em.Marshal(sf)
}

// Deserialize inverts Serialize. If the encoded form omitted the pubkey,
// the caller must supply it via WithPubKey after deserializing.
func Deserialize(data []byte) (*Note, error) {
	var sf serialForm
	if err := cbor.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("note: deserialize: %w", err)
	}
	n := &Note{Random: sf.Random, Amount: sf.Amount, Token: sf.Token}
	if sf.PubKey != nil {
		n.PubKey = *sf.PubKey
	}
	return n, nil
}

// WithPubKey returns a copy of n with the pubkey field set, for records
// deserialized without it.
func (n Note) WithPubKey(pubkey [32]byte) *Note {
	n.PubKey = pubkey
	return &n
}
