package blockgrp

import (
	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ardanlabs/blockwitness/business/sys/validate"
	"github.com/ethereum/go-ethereum/common"
)

type headerResponse struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
	RLP    string `json:"rlp"`
}

type queryRow struct {
	BlockNumber uint32 `json:"blockNumber"`
	Address     string `json:"address" validate:"omitempty,eth_addr"`
	Slot        string `json:"slot" validate:"omitempty,startswith=0x,hexadecimal,max=66"`
}

type queryRequest struct {
	Rows []queryRow `json:"rows" validate:"required,min=1,max=64,dive"`
}

// Validate checks the request against its declared tags.
func (qr queryRequest) Validate() error {
	return validate.Check(qr)
}

func (qr queryRequest) toRows() []query.Row {
	rows := make([]query.Row, len(qr.Rows))
	for i, r := range qr.Rows {
		rows[i].BlockNumber = r.BlockNumber

		if r.Address != "" {
			addr := common.HexToAddress(r.Address)
			rows[i].Address = &addr
		}

		if r.Slot != "" {
			slot := common.HexToHash(r.Slot)
			rows[i].Slot = &slot
		}
	}
	return rows
}
