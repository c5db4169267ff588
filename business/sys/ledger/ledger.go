// Package ledger provides a client for the game backend that owns the real
// blockchain and the authoritative history generator.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/archive/foundation/procedural"
)

// ErrUnavailable is returned when the backend can't answer a request.
var ErrUnavailable = errors.New("ledger unavailable")

// Client talks to the game backend over HTTP.
type Client struct {
	host string
	http *http.Client
}

// New constructs a client for the backend at host, like http://localhost:8000.
// A zero timeout leaves requests bounded only by their context.
func New(host string, timeout time.Duration) *Client {
	return &Client{
		host: host,
		http: &http.Client{Timeout: timeout},
	}
}

// Length returns the number of blocks on the real chain.
func (c *Client) Length(ctx context.Context) (int64, error) {
	var resp struct {
		Length int64 `json:"length"`
	}

	if err := c.get(ctx, "/api/chain", &resp); err != nil {
		return 0, err
	}

	return resp.Length, nil
}

// Block returns the block the backend has for the specified index. Past the
// end of the real chain the backend generates the block.
func (c *Client) Block(ctx context.Context, index int64) (procedural.Block, error) {
	var wb wireBlock
	if err := c.get(ctx, "/api/blockchain/block/"+strconv.FormatInt(index, 10), &wb); err != nil {
		return procedural.Block{}, err
	}

	if wb.Error != "" {
		return procedural.Block{}, fmt.Errorf("%w: block %d: %s", ErrUnavailable, index, wb.Error)
	}

	if wb.Index != index {
		return procedural.Block{}, fmt.Errorf("%w: asked for block %d, got %d", ErrUnavailable, index, wb.Index)
	}

	return wb.toBlock()
}

// get performs the request and decodes the JSON response into v.
func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: status %d: %s", ErrUnavailable, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrUnavailable, path, err)
	}

	return nil
}

// =============================================================================

// wireBlock is the block document produced by the backend. Timestamps arrive
// either as unix milliseconds or already formatted, amounts may be fractional.
type wireBlock struct {
	Index        int64           `json:"index"`
	TimeStamp    json.RawMessage `json:"timestamp"`
	Hash         string          `json:"hash"`
	PreviousHash string          `json:"previous_hash"`
	Nonce        int             `json:"nonce"`
	Transactions []wireTx        `json:"transactions"`
	IsProcedural bool            `json:"is_procedural"`
	Error        string          `json:"error"`
}

type wireTx struct {
	Sender     string  `json:"sender"`
	Recipient  string  `json:"recipient"`
	Amount     float64 `json:"amount"`
	IsCoinbase bool    `json:"is_coinbase"`
	TimeStamp  int64   `json:"timestamp"`
	Signature  *string `json:"signature"`
	Memo       string  `json:"memo"`
}

func (wb wireBlock) toBlock() (procedural.Block, error) {
	ts, err := formatTime(wb.TimeStamp)
	if err != nil {
		return procedural.Block{}, fmt.Errorf("%w: block %d: %w", ErrUnavailable, wb.Index, err)
	}

	txs := make([]procedural.Tx, len(wb.Transactions))
	for i, wtx := range wb.Transactions {
		tx := procedural.Tx{
			Sender:     wtx.Sender,
			Recipient:  wtx.Recipient,
			Amount:     int(math.Round(wtx.Amount)),
			IsCoinbase: wtx.IsCoinbase,
			TimeStamp:  wtx.TimeStamp,
			Memo:       wtx.Memo,
		}
		if wtx.Signature != nil {
			tx.Signature = *wtx.Signature
		}
		txs[i] = tx
	}

	b := procedural.Block{
		Index:        wb.Index,
		TimeStamp:    ts,
		Hash:         wb.Hash,
		PreviousHash: wb.PreviousHash,
		Nonce:        wb.Nonce,
		Transactions: txs,
		IsProcedural: wb.IsProcedural,
	}

	return b, nil
}

// formatTime accepts a unix millisecond number or a string and returns the
// archive's timestamp format.
func formatTime(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("missing timestamp")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return "", fmt.Errorf("timestamp %s: %w", raw, err)
	}

	return time.UnixMilli(int64(ms)).UTC().Format(procedural.TimeFormat), nil
}
