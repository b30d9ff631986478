package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// contractABI is the subset of the proof-of-travel contract this service calls.
const contractABI = `[
	{
		"type": "function",
		"name": "mintProof",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "countryCode", "type": "string"},
			{"name": "countryName", "type": "string"},
			{"name": "latitude", "type": "int256"},
			{"name": "longitude", "type": "int256"}
		],
		"outputs": [{"name": "tokenId", "type": "uint256"}]
	},
	{
		"type": "function",
		"name": "hasVisited",
		"stateMutability": "view",
		"inputs": [
			{"name": "user", "type": "address"},
			{"name": "countryCode", "type": "string"}
		],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "function",
		"name": "getVisitedCountries",
		"stateMutability": "view",
		"inputs": [{"name": "user", "type": "address"}],
		"outputs": [{"name": "", "type": "string[]"}]
	},
	{
		"type": "error",
		"name": "AlreadyVisited",
		"inputs": [
			{"name": "user", "type": "address"},
			{"name": "countryCode", "type": "string"}
		]
	}
]`

const (
	methodMint       = "mintProof"
	methodHasVisited = "hasVisited"
	methodVisited    = "getVisitedCountries"
)

// duplicateReason is the revert string of the contract's duplicate check.
const duplicateReason = "already visited"

var (
	parsedABI = mustParseABI(contractABI)
	// alreadyVisitedSelector identifies the AlreadyVisited custom error in revert data.
	alreadyVisitedSelector = crypto.Keccak256([]byte("AlreadyVisited(address,string)"))[:4]
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: invalid contract ABI: " + err.Error())
	}
	return parsed
}
