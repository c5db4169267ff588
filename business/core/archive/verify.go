package archive

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ardanlabs/archive/foundation/procedural"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Report is the result of checking a block against the generator.
type Report struct {
	Index    int64    `json:"index"`
	Valid    bool     `json:"valid"`
	Checksum string   `json:"checksum"`
	Expected string   `json:"expected_checksum"`
	Problems []string `json:"problems,omitempty"`
}

// Verify regenerates the block at the same index and reports every field
// that was altered. Only procedural blocks can be verified.
func (c *Core) Verify(block procedural.Block) (Report, error) {
	if !block.IsProcedural {
		return Report{}, fmt.Errorf("%w: block %d is not procedural", procedural.ErrInvalidArgument, block.Index)
	}

	exp, err := c.chain.GenerateBlock(block.Index)
	if err != nil {
		return Report{}, err
	}

	rpt := Report{
		Index:    block.Index,
		Checksum: Checksum(block),
		Expected: Checksum(exp),
	}

	if block.TimeStamp != exp.TimeStamp {
		rpt.Problems = append(rpt.Problems, fmt.Sprintf("timestamp altered, got %s, exp %s", block.TimeStamp, exp.TimeStamp))
	}

	if block.Hash != exp.Hash {
		rpt.Problems = append(rpt.Problems, fmt.Sprintf("hash altered, got %s, exp %s", block.Hash, exp.Hash))
	}

	if block.PreviousHash != exp.PreviousHash {
		rpt.Problems = append(rpt.Problems, "previous hash does not link to the parent block")
	}

	if block.Nonce != exp.Nonce {
		rpt.Problems = append(rpt.Problems, fmt.Sprintf("nonce altered, got %d, exp %d", block.Nonce, exp.Nonce))
	}

	switch {
	case len(block.Transactions) != len(exp.Transactions):
		rpt.Problems = append(rpt.Problems, fmt.Sprintf("transaction count altered, got %d, exp %d", len(block.Transactions), len(exp.Transactions)))

	default:
		for i := range exp.Transactions {
			if !reflect.DeepEqual(block.Transactions[i], exp.Transactions[i]) {
				rpt.Problems = append(rpt.Problems, fmt.Sprintf("transaction %d altered", i))
			}
		}
	}

	rpt.Valid = len(rpt.Problems) == 0

	return rpt, nil
}

// VerifyLink checks block follows parent in the chain.
func VerifyLink(parent procedural.Block, block procedural.Block) error {
	if block.Index != parent.Index+1 {
		return fmt.Errorf("block %d does not follow block %d", block.Index, parent.Index)
	}

	if block.PreviousHash != parent.Hash {
		return fmt.Errorf("block %d previous hash %s does not match parent hash %s", block.Index, block.PreviousHash, parent.Hash)
	}

	return nil
}

// hashedBlock is the part of a block the terminal checksums. Fields are
// declared in sorted key order, the same document the backend hashes.
type hashedBlock struct {
	Index        int64           `json:"index"`
	Nonce        int             `json:"nonce"`
	PreviousHash string          `json:"previous_hash"`
	TimeStamp    string          `json:"timestamp"`
	Transactions []procedural.Tx `json:"transactions"`
}

// Checksum returns the terminal's tamper checksum of the block. Only index,
// nonce, previous hash, timestamp and transactions take part.
func Checksum(block procedural.Block) string {
	txs := block.Transactions
	if txs == nil {
		txs = []procedural.Tx{}
	}

	data, err := json.Marshal(hashedBlock{
		Index:        block.Index,
		Nonce:        block.Nonce,
		PreviousHash: block.PreviousHash,
		TimeStamp:    block.TimeStamp,
		Transactions: txs,
	})
	if err != nil {
		return procedural.ZeroHash
	}

	return procedural.Checksum(string(data))
}

// Fingerprint returns the Keccak-256 hash of the block document. It is used
// as an HTTP entity tag so clients can revalidate cached blocks.
func Fingerprint(block procedural.Block) string {
	data, err := json.Marshal(block)
	if err != nil {
		return hexutil.Encode(crypto.Keccak256(nil))
	}

	return hexutil.Encode(crypto.Keccak256(data))
}
