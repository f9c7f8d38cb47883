package oracle

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// MethodProvideGasPrice is the contract method that accepts a witness and
// the RLP header of the proven block.
const MethodProvideGasPrice = "provideGasPrice"

// ABI is the interface of the gas price oracle contract.
const ABI = `[
	{
		"type": "function",
		"name": "provideGasPrice",
		"stateMutability": "nonpayable",
		"inputs": [
			{
				"name": "witness",
				"type": "tuple",
				"components": [
					{"name": "blockNumber", "type": "uint32"},
					{"name": "claimedBlockHash", "type": "bytes32"},
					{"name": "prevHash", "type": "bytes32"},
					{"name": "numFinal", "type": "uint32"},
					{"name": "merkleProof", "type": "bytes32[10]"}
				]
			},
			{"name": "rlpHeader", "type": "bytes"}
		],
		"outputs": []
	}
]`

// witnessArg is the tuple form of the witness. Field names must match the
// camel cased component names of the ABI.
type witnessArg struct {
	BlockNumber      uint32
	ClaimedBlockHash [32]byte
	PrevHash         [32]byte
	NumFinal         uint32
	MerkleProof      [query.BatchDepth][32]byte
}

// ParseABI returns the parsed contract interface.
func ParseABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse oracle abi: %w", err)
	}
	return parsed, nil
}

// pack encodes the call data for provideGasPrice.
func pack(contract abi.ABI, w query.BlockHashWitness, rlpHeader []byte) ([]byte, error) {
	arg := witnessArg{
		BlockNumber:      w.BlockNumber,
		ClaimedBlockHash: w.ClaimedBlockHash,
		PrevHash:         w.PrevHash,
		NumFinal:         w.NumFinal,
	}
	for i, h := range w.MerkleProof {
		arg.MerkleProof[i] = h
	}

	data, err := contract.Pack(MethodProvideGasPrice, arg, rlpHeader)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", MethodProvideGasPrice, err)
	}

	return data, nil
}
