// Package archive provides the core business API for serving archive
// history. Blocks come from the game backend when it can be reached and are
// generated locally when it can't.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/archive/foundation/archive/storage"
	"github.com/ardanlabs/archive/foundation/events"
	"github.com/ardanlabs/archive/foundation/procedural"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// MaxRange is the largest number of blocks a single range query returns.
const MaxRange = 100

// DefaultCacheSize matches how many blocks the terminal keeps around.
const DefaultCacheSize = 1000

// Source identifies where a block came from.
type Source string

// Set of block sources.
const (
	SourceCache     Source = "cache"
	SourceSnapshot  Source = "snapshot"
	SourceLedger    Source = "ledger"
	SourceGenerated Source = "generated"
)

// Ledger represents the behavior required from the game backend.
type Ledger interface {
	Length(ctx context.Context) (int64, error)
	Block(ctx context.Context, index int64) (procedural.Block, error)
}

// Record is a block and where it was found.
type Record struct {
	Block  procedural.Block
	Source Source
}

// Status describes the archive and the generator behind it.
type Status struct {
	LedgerOnline     bool          `json:"ledger_online"`
	LedgerLength     int64         `json:"ledger_length"`
	CachedBlocks     int           `json:"cached_blocks"`
	GenesisTime      time.Time     `json:"genesis_time"`
	AvgBlockTime     time.Duration `json:"avg_block_time"`
	DifficultyPrefix string        `json:"difficulty_prefix"`
	MasterSeed       uint32        `json:"master_seed"`
}

// Config represents the systems the core needs. Ledger, Snapshot and Evts
// are optional.
type Config struct {
	Log       *zap.SugaredLogger
	Chain     *procedural.Chain
	Ledger    Ledger
	Snapshot  storage.Storage
	Evts      *events.Events
	CacheSize int
}

// Core manages the set of APIs for archive access.
type Core struct {
	log      *zap.SugaredLogger
	chain    *procedural.Chain
	ledger   Ledger
	snapshot storage.Storage
	evts     *events.Events
	cache    *lru.Cache[int64, procedural.Block]
}

// NewCore constructs a core for archive api access.
func NewCore(cfg Config) (*Core, error) {
	if cfg.Log == nil || cfg.Chain == nil {
		return nil, errors.New("archive core requires a logger and a chain")
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New[int64, procedural.Block](size)
	if err != nil {
		return nil, fmt.Errorf("constructing cache: %w", err)
	}

	c := Core{
		log:      cfg.Log,
		chain:    cfg.Chain,
		ledger:   cfg.Ledger,
		snapshot: cfg.Snapshot,
		evts:     cfg.Evts,
		cache:    cache,
	}

	return &c, nil
}

// QueryByIndex returns the block at the specified index. The cache is
// checked first, then the snapshot, then the backend. If none of them have
// the block it's generated. Generated blocks are only cached when no backend
// is configured.
func (c *Core) QueryByIndex(ctx context.Context, index int64) (Record, error) {
	if index < 0 {
		return Record{}, fmt.Errorf("%w: negative block index %d", procedural.ErrInvalidArgument, index)
	}

	rec, err := c.lookup(ctx, index)
	if err != nil {
		return Record{}, err
	}

	c.notify(rec)

	return rec, nil
}

// QueryRange returns the blocks in the inclusive range [from, to].
func (c *Core) QueryRange(ctx context.Context, from int64, to int64) ([]Record, error) {
	switch {
	case from < 0:
		return nil, fmt.Errorf("%w: negative block index %d", procedural.ErrInvalidArgument, from)
	case to < from:
		return nil, fmt.Errorf("%w: range end %d is before start %d", procedural.ErrInvalidArgument, to, from)
	case to-from >= MaxRange:
		return nil, fmt.Errorf("%w: range of %d blocks is larger than %d", procedural.ErrInvalidArgument, to-from+1, MaxRange)
	}

	recs := make([]Record, 0, to-from+1)
	for index := from; index <= to; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := c.lookup(ctx, index)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	for _, rec := range recs {
		c.notify(rec)
	}

	return recs, nil
}

// QueryNode returns the network station at the specified index.
func (c *Core) QueryNode(ctx context.Context, index int64) (procedural.Node, error) {
	return c.chain.GenerateNode(index)
}

// Status reports the generator settings and whether the backend is reachable.
func (c *Core) Status(ctx context.Context) Status {
	cfg := c.chain.Config()

	st := Status{
		CachedBlocks:     c.cache.Len(),
		GenesisTime:      cfg.GenesisTime,
		AvgBlockTime:     cfg.AvgBlockTime,
		DifficultyPrefix: cfg.DifficultyPrefix,
		MasterSeed:       cfg.MasterSeed,
	}

	if c.ledger != nil {
		n, err := c.ledger.Length(ctx)
		if err == nil {
			st.LedgerOnline = true
			st.LedgerLength = n
		}
	}

	return st
}

// Purge drops every cached block.
func (c *Core) Purge() {
	c.cache.Purge()
}

// =============================================================================

// lookup walks the sources in order without raising events.
func (c *Core) lookup(ctx context.Context, index int64) (Record, error) {
	if block, ok := c.cache.Get(index); ok {
		return Record{Block: block, Source: SourceCache}, nil
	}

	if c.snapshot != nil {
		block, err := c.snapshot.GetBlock(index)
		switch {
		case err == nil:
			c.cache.Add(index, block)
			return Record{Block: block, Source: SourceSnapshot}, nil

		case !errors.Is(err, storage.ErrNotFound):
			c.log.Warnw("archive", "status", "snapshot read failed", "index", index, "ERROR", err)
		}
	}

	if c.ledger != nil && ctx.Err() == nil {
		block, err := c.ledger.Block(ctx, index)
		switch {
		case err == nil:

			// Only procedural history is cached, real blocks are fetched
			// every time.
			if block.IsProcedural {
				c.cache.Add(index, block)
			}
			return Record{Block: block, Source: SourceLedger}, nil

		default:
			c.log.Warnw("archive", "status", "ledger unavailable, generating locally", "index", index, "ERROR", err)
		}
	}

	block, err := c.chain.GenerateBlock(index)
	if err != nil {
		return Record{}, err
	}

	// With a backend configured the index may be on the real chain, so a
	// stand-in generated during an outage must not outlive it.
	if c.ledger == nil {
		c.cache.Add(index, block)
	}

	return Record{Block: block, Source: SourceGenerated}, nil
}

// event is the message published for every block served.
type event struct {
	Type   string `json:"type"`
	Index  int64  `json:"index"`
	Hash   string `json:"hash"`
	Source Source `json:"source"`
}

func (c *Core) notify(rec Record) {
	if c.evts == nil {
		return
	}

	data, err := json.Marshal(event{
		Type:   "block_served",
		Index:  rec.Block.Index,
		Hash:   rec.Block.Hash,
		Source: rec.Source,
	})
	if err != nil {
		return
	}

	c.evts.Send(string(data))
}
