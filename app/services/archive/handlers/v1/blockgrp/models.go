package blockgrp

import (
	"github.com/ardanlabs/archive/business/core/archive"
	"github.com/ardanlabs/archive/foundation/procedural"
)

// AppRecord is a block as returned to the client, with where it came from.
type AppRecord struct {
	Source archive.Source `json:"source"`
	procedural.Block
}

func toAppRecord(rec archive.Record) AppRecord {
	return AppRecord{
		Source: rec.Source,
		Block:  rec.Block,
	}
}

func toAppRecords(recs []archive.Record) []AppRecord {
	items := make([]AppRecord, len(recs))
	for i, rec := range recs {
		items[i] = toAppRecord(rec)
	}

	return items
}

// =============================================================================

// AppTx is a transaction inside a block submitted for verification.
type AppTx struct {
	Sender     string `json:"sender" validate:"required"`
	Recipient  string `json:"recipient" validate:"required"`
	Amount     int    `json:"amount" validate:"gte=0"`
	IsCoinbase bool   `json:"is_coinbase"`
	TimeStamp  int64  `json:"timestamp"`
	Signature  string `json:"signature"`
	Memo       string `json:"memo"`
}

// AppVerifyBlock is a block submitted by the terminal's tamper demo.
type AppVerifyBlock struct {
	Index        int64   `json:"index" validate:"gte=0"`
	TimeStamp    string  `json:"timestamp" validate:"required"`
	Hash         string  `json:"hash" validate:"required,hexadecimal,len=64"`
	PreviousHash string  `json:"previous_hash" validate:"required,hexadecimal,len=64"`
	Nonce        int     `json:"nonce" validate:"gte=0"`
	Transactions []AppTx `json:"transactions" validate:"dive"`
	IsProcedural bool    `json:"is_procedural"`
	Source       string  `json:"source"`
}

func toCoreBlock(app AppVerifyBlock) procedural.Block {
	txs := make([]procedural.Tx, len(app.Transactions))
	for i, tx := range app.Transactions {
		txs[i] = procedural.Tx{
			Sender:     tx.Sender,
			Recipient:  tx.Recipient,
			Amount:     tx.Amount,
			IsCoinbase: tx.IsCoinbase,
			TimeStamp:  tx.TimeStamp,
			Signature:  tx.Signature,
			Memo:       tx.Memo,
		}
	}

	return procedural.Block{
		Index:        app.Index,
		TimeStamp:    app.TimeStamp,
		Hash:         app.Hash,
		PreviousHash: app.PreviousHash,
		Nonce:        app.Nonce,
		Transactions: txs,
		IsProcedural: app.IsProcedural,
	}
}

// =============================================================================

// AppChecksum is the text to run through the terminal checksum.
type AppChecksum struct {
	Text string `json:"text" validate:"max=65536"`
}

// AppChecksumResult is the checksum of the submitted text.
type AppChecksumResult struct {
	Checksum string `json:"checksum"`
}
