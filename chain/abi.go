// Package chain adapts the shielded pool contract's event log and calldata
// encoding to the wallet's core types: it follows web3/contracts.go's
// pattern of wrapping an ethclient.Client, but talks to the pool contract
// through a raw accounts/abi.ABI instead of abigen-generated bindings,
// since no bindings package for this contract exists in the retrieved
// pack (the teacher's own bindings, github.com/vocdoni/contracts-z, are
// specific to its voting contracts).
package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolABIJSON = `[
	{
		"type": "function",
		"name": "generateDeposit",
		"stateMutability": "nonpayable",
		"inputs": [{
			"name": "deposits", "type": "tuple[]",
			"components": [
				{"name": "pubkey", "type": "uint256[2]"},
				{"name": "random", "type": "uint256"},
				{"name": "amount", "type": "uint256"},
				{"name": "tokenType", "type": "uint8"},
				{"name": "tokenSubID", "type": "uint256"},
				{"name": "token", "type": "uint256"}
			]
		}],
		"outputs": []
	},
	{
		"type": "function",
		"name": "transact",
		"stateMutability": "nonpayable",
		"inputs": [{
			"name": "spends", "type": "tuple[]",
			"components": [
				{"name": "proofA", "type": "uint256[2]"},
				{"name": "proofB", "type": "uint256[2][2]"},
				{"name": "proofC", "type": "uint256[2]"},
				{"name": "adaptIDcontract", "type": "address"},
				{"name": "adaptIDparameters", "type": "uint256"},
				{"name": "depositAmount", "type": "uint120"},
				{"name": "withdrawAmount", "type": "uint120"},
				{"name": "tokenType", "type": "uint8"},
				{"name": "tokenSubID", "type": "uint256"},
				{"name": "tokenField", "type": "uint256"},
				{"name": "outputEthAddress", "type": "address"},
				{"name": "treeNumber", "type": "uint256"},
				{"name": "merkleRoot", "type": "uint256"},
				{"name": "nullifiers", "type": "uint256[]"},
				{"name": "commitmentsOut", "type": "tuple[]",
					"components": [
						{"name": "hash", "type": "uint256"},
						{"name": "ciphertext", "type": "uint256[]"},
						{"name": "senderPubKey", "type": "uint256[2]"},
						{"name": "revealKey", "type": "uint256[]"}
					]
				}
			]
		}],
		"outputs": []
	},
	{
		"type": "event",
		"name": "GeneratedCommitmentBatch",
		"anonymous": false,
		"inputs": [
			{"name": "treeNumber", "type": "uint256", "indexed": false},
			{"name": "startPosition", "type": "uint256", "indexed": false},
			{"name": "commitments", "type": "uint256[]", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "CommitmentBatch",
		"anonymous": false,
		"inputs": [
			{"name": "treeNumber", "type": "uint256", "indexed": false},
			{"name": "startPosition", "type": "uint256", "indexed": false},
			{"name": "commitments", "type": "uint256[]", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "Nullifier",
		"anonymous": false,
		"inputs": [
			{"name": "nullifier", "type": "uint256", "indexed": false}
		]
	}
]`

// poolABI is parsed once at package init, following web3/contracts.go's
// convention of loading contract metadata eagerly rather than per-call.
var poolABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(poolABIJSON))
	if err != nil {
		panic("chain: invalid embedded pool ABI: " + err.Error())
	}
	poolABI = parsed
}

// EventGeneratedCommitmentBatch is the topic0 of a cleartext-deposit batch.
var EventGeneratedCommitmentBatch = poolABI.Events["GeneratedCommitmentBatch"].ID

// EventCommitmentBatch is the topic0 of an encrypted-transfer batch.
var EventCommitmentBatch = poolABI.Events["CommitmentBatch"].ID

// EventNullifier is the topic0 of a spent-nullifier announcement.
var EventNullifier = poolABI.Events["Nullifier"].ID
