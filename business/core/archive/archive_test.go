package archive_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ardanlabs/archive/business/core/archive"
	"github.com/ardanlabs/archive/foundation/archive/storage/memory"
	"github.com/ardanlabs/archive/foundation/events"
	"github.com/ardanlabs/archive/foundation/procedural"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// fakeLedger serves the configured blocks and fails for everything else.
type fakeLedger struct {
	mu     sync.Mutex
	blocks map[int64]procedural.Block
	down   bool
	calls  int
}

func (l *fakeLedger) Length(ctx context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.down {
		return 0, errors.New("connection refused")
	}

	return int64(len(l.blocks)), nil
}

func (l *fakeLedger) Block(ctx context.Context, index int64) (procedural.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++

	if l.down {
		return procedural.Block{}, errors.New("connection refused")
	}

	b, ok := l.blocks[index]
	if !ok {
		return procedural.Block{}, errors.New("block not found")
	}

	return b, nil
}

func newCore(t *testing.T, cfg archive.Config) *archive.Core {
	chain, err := procedural.New(procedural.DefaultConfig())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a chain: %v", failed, err)
	}

	cfg.Log = zap.NewNop().Sugar()
	cfg.Chain = chain

	core, err := archive.NewCore(cfg)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the core: %v", failed, err)
	}

	return core
}

func TestQueryByIndex(t *testing.T) {
	live := procedural.Block{
		Index:        7,
		TimeStamp:    "2024-03-01T10:00:00.000Z",
		Hash:         "0000aaaa",
		PreviousHash: "0000bbbb",
		Transactions: []procedural.Tx{{Sender: "alice", Recipient: "bob", Amount: 3, Memo: "rent"}},
	}

	t.Log("Given the need to look up blocks through every source.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen there is no backend.", testID)
		{
			core := newCore(t, archive.Config{})

			rec, err := core.QueryByIndex(context.Background(), 0)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query block 0: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to query block 0.", success, testID)

			if rec.Source != archive.SourceGenerated {
				t.Fatalf("\t%s\tTest %d:\tShould generate the block, got %s.", failed, testID, rec.Source)
			}
			t.Logf("\t%s\tTest %d:\tShould generate the block.", success, testID)

			if exp := "0000cb72af97db18d292ede97231620e77346e04cc649a8a5022f4e1391a3da3"; rec.Block.Hash != exp {
				t.Fatalf("\t%s\tTest %d:\tShould get back the deterministic hash, got %s.", failed, testID, rec.Block.Hash)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the deterministic hash.", success, testID)

			rec, err = core.QueryByIndex(context.Background(), 0)
			if err != nil || rec.Source != archive.SourceCache {
				t.Fatalf("\t%s\tTest %d:\tShould serve the second lookup from cache: %s %v", failed, testID, rec.Source, err)
			}
			t.Logf("\t%s\tTest %d:\tShould serve the second lookup from cache.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the backend has the block.", testID)
		{
			ldg := fakeLedger{blocks: map[int64]procedural.Block{7: live}}
			core := newCore(t, archive.Config{Ledger: &ldg})

			for range 2 {
				rec, err := core.QueryByIndex(context.Background(), 7)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to query block 7: %v", failed, testID, err)
				}

				if rec.Source != archive.SourceLedger || rec.Block.Hash != live.Hash {
					t.Fatalf("\t%s\tTest %d:\tShould get back the real block, got %s %s.", failed, testID, rec.Source, rec.Block.Hash)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get back the real block.", success, testID)

			if ldg.calls != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould not cache real blocks, got %d calls.", failed, testID, ldg.calls)
			}
			t.Logf("\t%s\tTest %d:\tShould not cache real blocks.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the backend is down.", testID)
		{
			ldg := fakeLedger{down: true}
			core := newCore(t, archive.Config{Ledger: &ldg})

			rec, err := core.QueryByIndex(context.Background(), 2)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould fall back to the generator: %v", failed, testID, err)
			}

			if rec.Source != archive.SourceGenerated || !rec.Block.IsProcedural {
				t.Fatalf("\t%s\tTest %d:\tShould fall back to the generator, got %s.", failed, testID, rec.Source)
			}
			t.Logf("\t%s\tTest %d:\tShould fall back to the generator.", success, testID)

			rec, _ = core.QueryByIndex(context.Background(), 2)
			if rec.Source != archive.SourceGenerated || ldg.calls != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould not cache the stand-in block, got %s and %d calls.", failed, testID, rec.Source, ldg.calls)
			}
			t.Logf("\t%s\tTest %d:\tShould not cache the stand-in block.", success, testID)

			ldg.mu.Lock()
			ldg.down = false
			ldg.blocks = map[int64]procedural.Block{2: {Index: 2, Hash: "0000beef"}}
			ldg.mu.Unlock()

			rec, err = core.QueryByIndex(context.Background(), 2)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query block 2: %v", failed, testID, err)
			}

			if rec.Source != archive.SourceLedger || rec.Block.Hash != "0000beef" {
				t.Fatalf("\t%s\tTest %d:\tShould serve the real block once the backend is back, got %s %s.", failed, testID, rec.Source, rec.Block.Hash)
			}
			t.Logf("\t%s\tTest %d:\tShould serve the real block once the backend is back.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a snapshot holds the block.", testID)
		{
			snap := memory.New()
			if err := snap.Write(live); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the snapshot: %v", failed, testID, err)
			}

			ldg := fakeLedger{down: true}
			core := newCore(t, archive.Config{Ledger: &ldg, Snapshot: snap})

			rec, err := core.QueryByIndex(context.Background(), 7)
			if err != nil || rec.Source != archive.SourceSnapshot {
				t.Fatalf("\t%s\tTest %d:\tShould serve the block from the snapshot: %s %v", failed, testID, rec.Source, err)
			}
			t.Logf("\t%s\tTest %d:\tShould serve the block from the snapshot.", success, testID)

			if ldg.calls != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not call the backend, got %d calls.", failed, testID, ldg.calls)
			}
			t.Logf("\t%s\tTest %d:\tShould not call the backend.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the index is negative.", testID)
		{
			core := newCore(t, archive.Config{})

			if _, err := core.QueryByIndex(context.Background(), -1); !errors.Is(err, procedural.ErrInvalidArgument) {
				t.Fatalf("\t%s\tTest %d:\tShould get an invalid argument error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get an invalid argument error.", success, testID)
		}
	}
}

func TestQueryRange(t *testing.T) {
	t.Log("Given the need to page through history.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen asking for a valid range.", testID)
		{
			core := newCore(t, archive.Config{})

			recs, err := core.QueryRange(context.Background(), 10, 19)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query the range: %v", failed, testID, err)
			}

			if len(recs) != 10 {
				t.Fatalf("\t%s\tTest %d:\tShould get back 10 blocks, got %d.", failed, testID, len(recs))
			}
			t.Logf("\t%s\tTest %d:\tShould get back 10 blocks.", success, testID)

			for i := 1; i < len(recs); i++ {
				if err := archive.VerifyLink(recs[i-1].Block, recs[i].Block); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould get back a linked range: %v", failed, testID, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get back a linked range.", success, testID)
		}

		tt := []struct {
			name string
			from int64
			to   int64
		}{
			{"negative", -1, 5},
			{"inverted", 9, 3},
			{"too-wide", 0, archive.MaxRange},
		}

		for _, tst := range tt {
			testID++
			t.Logf("\tTest %d:\tWhen asking for a %s range.", testID, tst.name)
			{
				f := func(t *testing.T) {
					core := newCore(t, archive.Config{})

					if _, err := core.QueryRange(context.Background(), tst.from, tst.to); !errors.Is(err, procedural.ErrInvalidArgument) {
						t.Fatalf("\t%s\tTest %d:\tShould get an invalid argument error: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get an invalid argument error.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestVerify(t *testing.T) {
	core := newCore(t, archive.Config{})

	t.Log("Given the need to detect tampered blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the block is untouched.", testID)
		{
			rec, err := core.QueryByIndex(context.Background(), 0)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query block 0: %v", failed, testID, err)
			}

			rpt, err := core.Verify(rec.Block)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to verify: %v", failed, testID, err)
			}

			if !rpt.Valid || rpt.Checksum != rpt.Expected {
				t.Fatalf("\t%s\tTest %d:\tShould report a valid block: %v", failed, testID, rpt.Problems)
			}
			t.Logf("\t%s\tTest %d:\tShould report a valid block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a transaction amount was changed.", testID)
		{
			rec, _ := core.QueryByIndex(context.Background(), 0)

			block := rec.Block
			block.Transactions = append([]procedural.Tx(nil), block.Transactions...)
			block.Transactions[0].Amount = 1_000

			rpt, err := core.Verify(block)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to verify: %v", failed, testID, err)
			}

			if rpt.Valid || len(rpt.Problems) != 1 || !strings.Contains(rpt.Problems[0], "transaction 0") {
				t.Fatalf("\t%s\tTest %d:\tShould report the altered transaction: %v", failed, testID, rpt.Problems)
			}
			t.Logf("\t%s\tTest %d:\tShould report the altered transaction.", success, testID)

			if exp := strings.Repeat("0", 56) + "5855d925"; rpt.Checksum != exp {
				t.Fatalf("\t%s\tTest %d:\tShould get back the checksum the terminal shows, got %s.", failed, testID, rpt.Checksum)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the checksum the terminal shows.", success, testID)

			if archive.Fingerprint(block) == archive.Fingerprint(rec.Block) {
				t.Fatalf("\t%s\tTest %d:\tShould get back a different fingerprint.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get back a different fingerprint.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the block is not procedural.", testID)
		{
			if _, err := core.Verify(procedural.Block{Index: 3}); !errors.Is(err, procedural.ErrInvalidArgument) {
				t.Fatalf("\t%s\tTest %d:\tShould get an invalid argument error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get an invalid argument error.", success, testID)
		}
	}
}

func TestChecksum(t *testing.T) {
	type table struct {
		index int64
		exp   string
	}

	// These values were produced by the terminal's block hash display.
	tt := []table{
		{index: 0, exp: strings.Repeat("0", 56) + "1342b42b"},
		{index: 2, exp: strings.Repeat("0", 56) + "303571b4"},
	}

	core := newCore(t, archive.Config{})

	t.Log("Given the need to match the terminal's tamper checksum.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen checksumming block %d.", testID, tst.index)
			{
				rec, err := core.QueryByIndex(context.Background(), tst.index)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to query the block: %v", failed, testID, err)
				}

				if got := archive.Checksum(rec.Block); got != tst.exp {
					t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
					t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.exp)
					t.Fatalf("\t%s\tTest %d:\tShould get back the terminal checksum.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the terminal checksum.", success, testID)

				block := rec.Block
				block.Hash = procedural.ZeroHash
				block.IsProcedural = false
				if archive.Checksum(block) != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould ignore the hash and procedural flag.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould ignore the hash and procedural flag.", success, testID)
			}
		}
	}
}

func TestFingerprint(t *testing.T) {
	t.Log("Given the need to tag blocks for revalidation.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen fingerprinting a block.", testID)
		{
			core := newCore(t, archive.Config{})
			rec, _ := core.QueryByIndex(context.Background(), 5)

			fp := archive.Fingerprint(rec.Block)
			if !strings.HasPrefix(fp, "0x") || len(fp) != 66 {
				t.Fatalf("\t%s\tTest %d:\tShould get back a 32 byte hex value, got %s.", failed, testID, fp)
			}
			t.Logf("\t%s\tTest %d:\tShould get back a 32 byte hex value.", success, testID)

			if fp != archive.Fingerprint(rec.Block) {
				t.Fatalf("\t%s\tTest %d:\tShould get back the same value twice.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the same value twice.", success, testID)
		}
	}
}

func TestEventsAndStatus(t *testing.T) {
	t.Log("Given the need to watch archive activity.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a block is served.", testID)
		{
			evts := events.New()
			defer evts.Shutdown()

			ch := evts.Acquire("test")
			core := newCore(t, archive.Config{Evts: evts})

			if _, err := core.QueryByIndex(context.Background(), 1); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query block 1: %v", failed, testID, err)
			}

			var evt struct {
				Type   string `json:"type"`
				Index  int64  `json:"index"`
				Source string `json:"source"`
			}
			if err := json.Unmarshal([]byte(<-ch), &evt); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to decode the event: %v", failed, testID, err)
			}

			if evt.Type != "block_served" || evt.Index != 1 || evt.Source != string(archive.SourceGenerated) {
				t.Fatalf("\t%s\tTest %d:\tShould get back the served block event: %+v", failed, testID, evt)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the served block event.", success, testID)

			st := core.Status(context.Background())
			if st.LedgerOnline || st.CachedBlocks != 1 || st.MasterSeed != 8472934 {
				t.Fatalf("\t%s\tTest %d:\tShould report the archive status: %+v", failed, testID, st)
			}
			t.Logf("\t%s\tTest %d:\tShould report the archive status.", success, testID)

			core.Purge()
			if st := core.Status(context.Background()); st.CachedBlocks != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould empty the cache on purge.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould empty the cache on purge.", success, testID)
		}
	}
}
