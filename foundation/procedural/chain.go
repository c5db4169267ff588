package procedural

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Coinbase is the sender and signature value used by reward transactions.
const Coinbase = "COINBASE"

// CoinbaseReward is the amount carried by every coinbase transaction.
const CoinbaseReward = 50

// Field sizes of the generated hex values.
const (
	HashLength      = 64
	AddressLength   = 40
	SignatureLength = 128
)

// ZeroHash is the previous hash recorded by the block at index 0.
var ZeroHash = strings.Repeat("0", HashLength)

// TimeFormat is how block timestamps are rendered.
const TimeFormat = "2006-01-02T15:04:05.000Z"

const (
	hexDigits     = "0123456789abcdef"
	maxNonce      = 1_000_000
	maxTxPerBlock = 5
	coinbaseOdds  = 0.3
	txTimeStep    = 1000
)

// =============================================================================

// Config represents the parameters that define a procedural chain. Two
// chains constructed from the same config produce identical blocks.
type Config struct {
	GenesisTime      time.Time
	AvgBlockTime     time.Duration
	DifficultyPrefix string
	MasterSeed       uint32
}

// DefaultConfig returns the parameters used by the deployed archive.
func DefaultConfig() Config {
	return Config{
		GenesisTime:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		AvgBlockTime:     10 * time.Minute,
		DifficultyPrefix: "0000",
		MasterSeed:       8472934,
	}
}

// Validate checks the config can drive a generator.
func (cfg Config) Validate() error {
	if cfg.GenesisTime.Before(time.Unix(0, 0)) {
		return fmt.Errorf("%w: genesis time %v is before the unix epoch", ErrInvalidArgument, cfg.GenesisTime)
	}

	if cfg.AvgBlockTime <= 0 || cfg.AvgBlockTime%time.Millisecond != 0 {
		return fmt.Errorf("%w: block time %v must be a positive number of milliseconds", ErrInvalidArgument, cfg.AvgBlockTime)
	}

	if len(cfg.DifficultyPrefix) >= HashLength {
		return fmt.Errorf("%w: difficulty prefix is longer than a hash", ErrInvalidArgument)
	}

	if strings.Trim(cfg.DifficultyPrefix, "0") != "" {
		return fmt.Errorf("%w: difficulty prefix %q must only contain zeros", ErrInvalidArgument, cfg.DifficultyPrefix)
	}

	return nil
}

// =============================================================================

// Tx represents a transaction inside a block. Generated transactions never
// carry a memo, those only come from the real ledger.
type Tx struct {
	Sender     string `json:"sender"`
	Recipient  string `json:"recipient"`
	Amount     int    `json:"amount"`
	IsCoinbase bool   `json:"is_coinbase"`
	TimeStamp  int64  `json:"timestamp"`
	Signature  string `json:"signature"`
	Memo       string `json:"memo,omitempty"`
}

// Block represents a historical block. Blocks produced by a Chain are marked
// procedural so they can be told apart from real ledger blocks.
type Block struct {
	Index        int64  `json:"index"`
	TimeStamp    string `json:"timestamp"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previous_hash"`
	Nonce        int    `json:"nonce"`
	Transactions []Tx   `json:"transactions"`
	IsProcedural bool   `json:"is_procedural"`
}

// =============================================================================

// Chain generates blocks for any index. It holds no mutable state and is
// safe for concurrent use.
type Chain struct {
	cfg       Config
	genesisMs int64
	blockMs   int64
}

// New constructs a chain for the specified config.
func New(cfg Config) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := Chain{
		cfg:       cfg,
		genesisMs: cfg.GenesisTime.UnixMilli(),
		blockMs:   cfg.AvgBlockTime.Milliseconds(),
	}

	return &c, nil
}

// Config returns a copy of the config the chain was constructed with.
func (c *Chain) Config() Config {
	return c.cfg
}

// GenerateBlock produces the block at the specified index. The result only
// depends on the config and the index.
func (c *Chain) GenerateBlock(index int64) (Block, error) {
	ms, err := c.timeMs(index)
	if err != nil {
		return Block{}, err
	}

	// Each index gets its own source. Sharing one across indexes would tie
	// the content of a block to the order blocks were requested in.
	rng := NewRandom(c.seed(index))

	hash := c.GenerateHash(rng)

	prevHash := ZeroHash
	if index > 0 {
		prevHash = c.GenerateHash(NewRandom(c.seed(index - 1)))
	}

	nonce := rng.NextInt(0, maxNonce)

	txCount := rng.NextInt(0, maxTxPerBlock)
	txs := make([]Tx, txCount)
	for i := range txs {
		txs[i] = c.generateTx(rng, i, ms)
	}

	b := Block{
		Index:        index,
		TimeStamp:    time.UnixMilli(ms).UTC().Format(TimeFormat),
		Hash:         hash,
		PreviousHash: prevHash,
		Nonce:        nonce,
		Transactions: txs,
		IsProcedural: true,
	}

	return b, nil
}

// TimeStamp returns the time of the block at the specified index.
func (c *Chain) TimeStamp(index int64) (time.Time, error) {
	ms, err := c.timeMs(index)
	if err != nil {
		return time.Time{}, err
	}

	return time.UnixMilli(ms).UTC(), nil
}

// GenerateHash draws a hash that starts with the difficulty prefix.
func (c *Chain) GenerateHash(rng *Random) string {
	var b strings.Builder
	b.Grow(HashLength)

	b.WriteString(c.cfg.DifficultyPrefix)
	writeHex(&b, rng, HashLength-len(c.cfg.DifficultyPrefix))

	return b.String()
}

// GenerateAddress draws a 40 character hex account address.
func GenerateAddress(rng *Random) string {
	var b strings.Builder
	b.Grow(AddressLength)
	writeHex(&b, rng, AddressLength)

	return b.String()
}

// GenerateSignature draws a 128 character hex signature.
func GenerateSignature(rng *Random) string {
	var b strings.Builder
	b.Grow(SignatureLength)
	writeHex(&b, rng, SignatureLength)

	return b.String()
}

// =============================================================================

// generateTx draws the transaction for the specified slot. The coinbase
// draw only happens for slot 0.
func (c *Chain) generateTx(rng *Random, slot int, blockMs int64) Tx {
	ts := blockMs + int64(slot)*txTimeStep

	if slot == 0 && rng.Next() < coinbaseOdds {
		return Tx{
			Sender:     Coinbase,
			Recipient:  GenerateAddress(rng),
			Amount:     CoinbaseReward,
			IsCoinbase: true,
			TimeStamp:  ts,
			Signature:  Coinbase,
		}
	}

	// Draw order matters, every field is taken from the same source.
	var tx Tx
	tx.Sender = GenerateAddress(rng)
	tx.Recipient = GenerateAddress(rng)
	tx.Amount = rng.NextInt(1, 100)
	tx.TimeStamp = ts
	tx.Signature = GenerateSignature(rng)

	return tx
}

// seed returns the source seed for an index. The addition wraps at 32 bits.
func (c *Chain) seed(index int64) uint32 {
	return c.cfg.MasterSeed + uint32(uint64(index))
}

// timeMs returns the unix millisecond time of an index.
func (c *Chain) timeMs(index int64) (int64, error) {
	if index < 0 {
		return 0, fmt.Errorf("%w: negative block index %d", ErrInvalidArgument, index)
	}

	if index > (math.MaxInt64-c.genesisMs)/c.blockMs {
		return 0, fmt.Errorf("%w: block index %d is beyond the end of time", ErrInvalidArgument, index)
	}

	return c.genesisMs + index*c.blockMs, nil
}

func writeHex(b *strings.Builder, rng *Random, n int) {
	for range n {
		b.WriteByte(hexDigits[rng.NextInt(0, 15)])
	}
}
