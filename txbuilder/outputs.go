package txbuilder

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/shieldwallet/shieldwallet/crypto/aesctr"
	"github.com/shieldwallet/shieldwallet/crypto/babyjub"
	"github.com/shieldwallet/shieldwallet/note"
	"github.com/shieldwallet/shieldwallet/types"
)

// randomBytes returns n cryptographically random bytes, panicking on
// failure the way crypto/rand's own callers in this codebase do — a
// broken system entropy source isn't a recoverable condition here.
func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// buildOutputs assembles the circuit's fixed 3-output set: the caller's
// requested outputs, a change note returning (totalIn - required) to the
// spender's own change chain, then dummy notes padding up to
// types.CircuitOutputs.
func buildOutputs(requested []OutputRequest, changePub [32]byte, change *big.Int, token [32]byte) ([]*note.Note, error) {
	outs := make([]*note.Note, 0, types.CircuitOutputs)
	for _, r := range requested {
		var random [16]byte
		copy(random[:], randomBytes(16))
		n, err := note.New(r.PubKey, random, r.Amount, r.Token)
		if err != nil {
			return nil, fmt.Errorf("txbuilder: output note: %w", err)
		}
		outs = append(outs, n)
	}

	var changeRandom [16]byte
	copy(changeRandom[:], randomBytes(16))
	changeNote, err := note.New(changePub, changeRandom, change, token)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: change note: %w", err)
	}
	outs = append(outs, changeNote)

	for len(outs) < types.CircuitOutputs {
		d, err := dummyOutput(token)
		if err != nil {
			return nil, err
		}
		outs = append(outs, d)
	}
	return outs, nil
}

func dummyOutput(token [32]byte) (*note.Note, error) {
	sk := babyjub.RandomPrivateKey()
	pub := babyjub.PrivateToPublic(sk).Pack()
	var random [16]byte
	copy(random[:], randomBytes(16))
	n, err := note.New(pub, random, big.NewInt(0), token)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: dummy output: %w", err)
	}
	return n, nil
}

// encryptOutputs encrypts each output note under a fresh sender ephemeral
// key via ECDH, wraps the shared secret itself under the spender's view key
// (revealKey, so the spender can later audit who sent what), and folds
// everything into ciphertextHash per §4.G.
func encryptOutputs(outs []*note.Note, viewKey [32]byte) ([]OutputCommitment, *big.Int, error) {
	commitments := make([]OutputCommitment, len(outs))
	var buf []byte

	for i, n := range outs {
		senderSk := babyjub.RandomPrivateKey()
		senderPub := babyjub.PrivateToPublic(senderSk)
		senderPacked := senderPub.Pack()

		recipientPub, err := babyjub.Unpack(n.PubKey)
		if err != nil {
			return nil, nil, fmt.Errorf("txbuilder: unpack output recipient: %w", err)
		}
		shared, err := babyjub.ECDH(senderSk, recipientPub)
		if err != nil {
			return nil, nil, fmt.Errorf("txbuilder: output ecdh: %w", err)
		}

		ct, err := n.Encrypt(shared)
		if err != nil {
			return nil, nil, fmt.Errorf("txbuilder: encrypt output: %w", err)
		}
		revealCT, err := aesctr.Encrypt(shared[:], viewKey[:])
		if err != nil {
			return nil, nil, fmt.Errorf("txbuilder: encrypt reveal key: %w", err)
		}

		commitment, err := n.Commitment()
		if err != nil {
			return nil, nil, fmt.Errorf("txbuilder: output commitment: %w", err)
		}

		commitments[i] = OutputCommitment{
			Commitment:   commitment.Bytes32(),
			SenderPubKey: senderPacked,
			CiphertextIV: ct.IV,
			Ciphertext:   ct.Data,
			RevealKeyIV:  revealCT.IV,
			RevealKey:    revealCT.Data,
		}

		buf = append(buf, pad32(senderPub.X.Bytes())...)
		buf = append(buf, pad32(senderPub.Y.Bytes())...)
		buf = append(buf, ct.IV[:]...)
		buf = append(buf, ct.Data...)
		buf = append(buf, revealCT.IV[:]...)
		buf = append(buf, revealCT.Data...)
	}

	sum := sha256.Sum256(buf)
	hash := new(big.Int).Mod(new(big.Int).SetBytes(sum[:]), types.SNARKPrime)
	return commitments, hash, nil
}
