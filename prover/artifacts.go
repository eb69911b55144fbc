// Package prover drives the external witness generator and Groth16 prover
// over the small/large ERC-20 circuits, and normalizes proof encoding to
// the on-chain verifier's expected element ordering. Artifact loading
// follows circuits/artifacts.go's local-cache-by-hash pattern, trimmed to
// this module's needs: the wallet's circuit files are provisioned locally
// (no remote registry), so only the hash-checked local load survives.
package prover

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/shieldwallet/shieldwallet/txbuilder"
)

// CheckHashes controls whether loaded artifact bytes are verified against
// their declared hash. It is on by default; an Artifact with an empty Hash
// is loaded without a check either way.
var CheckHashes = true

// Artifact is one circuit file (wasm, zkey, or verification key) loaded
// from disk and checked against an expected content hash.
type Artifact struct {
	Path    string
	Hash    []byte
	Content []byte
}

// Load reads the artifact from disk into Content, verifying its hash.
func (a *Artifact) Load() error {
	if len(a.Content) != 0 {
		return nil
	}
	content, err := os.ReadFile(a.Path)
	if err != nil {
		return fmt.Errorf("prover: read artifact %s: %w", a.Path, err)
	}
	if CheckHashes && len(a.Hash) != 0 {
		sum := sha256.Sum256(content)
		if !bytes.Equal(sum[:], a.Hash) {
			return fmt.Errorf("prover: artifact %s hash mismatch: expected %x, got %x", a.Path, a.Hash, sum)
		}
	}
	a.Content = content
	return nil
}

// CircuitArtifacts bundles the wasm witness generator, the Groth16 proving
// key, and the verification key for one circuit arity.
type CircuitArtifacts struct {
	WASM *Artifact
	ZKey *Artifact
	VKey *Artifact
}

// Load loads all three files.
func (ca *CircuitArtifacts) Load() error {
	if err := ca.WASM.Load(); err != nil {
		return fmt.Errorf("prover: wasm: %w", err)
	}
	if err := ca.ZKey.Load(); err != nil {
		return fmt.Errorf("prover: zkey: %w", err)
	}
	if err := ca.VKey.Load(); err != nil {
		return fmt.Errorf("prover: vkey: %w", err)
	}
	return nil
}

// ArtifactSet holds the small and large circuit artifact bundles.
type ArtifactSet struct {
	Small CircuitArtifacts
	Large CircuitArtifacts
}

// For returns the artifact bundle for circuit.
func (as *ArtifactSet) For(circuit txbuilder.Circuit) *CircuitArtifacts {
	if circuit == txbuilder.CircuitLarge {
		return &as.Large
	}
	return &as.Small
}

// LoadAll loads every artifact in the set.
func (as *ArtifactSet) LoadAll() error {
	if err := as.Small.Load(); err != nil {
		return fmt.Errorf("prover: small circuit: %w", err)
	}
	if err := as.Large.Load(); err != nil {
		return fmt.Errorf("prover: large circuit: %w", err)
	}
	return nil
}
