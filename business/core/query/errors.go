package query

import "errors"

// Set of error variables for the query client.
var (
	ErrUnsupportedVersion = errors.New("unsupported query version")
	ErrChainMismatch      = errors.New("provider chain id does not match config")
	ErrBlockNotFinal      = errors.New("block is above the current head")
	ErrBlockNotFound      = errors.New("block not found")
	ErrBlockRange         = errors.New("block number does not fit in uint32")
	ErrBrokenChain        = errors.New("headers in batch are not linked")
	ErrInvalidWitness     = errors.New("invalid block hash witness")
)

// Set of error variables for building queries.
var (
	ErrEmptyQuery         = errors.New("query has no rows")
	ErrTooManyRows        = errors.New("query has too many rows")
	ErrDuplicateRow       = errors.New("query row already appended")
	ErrSlotWithoutAddress = errors.New("storage slot requires an address")
	ErrInvalidSlot        = errors.New("storage slot must be 0x hex of at most 32 bytes")
)
