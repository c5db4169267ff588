// Package blockgrp maintains the group of handlers for block access.
package blockgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/archive/business/core/archive"
	"github.com/ardanlabs/archive/business/sys/validate"
	"github.com/ardanlabs/archive/business/web/errs"
	"github.com/ardanlabs/archive/foundation/procedural"
	"github.com/ardanlabs/archive/foundation/web"
	"go.uber.org/zap"
)

// SourceHeader names where the served block came from.
const SourceHeader = "X-Archive-Source"

// Handlers manages the set of block endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Archive *archive.Core
}

// QueryByIndex returns the block at the specified index.
func (h Handlers) QueryByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := web.ParamInt64(r, "index")
	if err != nil {
		return errs.BadRequest(err)
	}

	rec, err := h.Archive.QueryByIndex(ctx, index)
	if err != nil {
		if errors.Is(err, procedural.ErrInvalidArgument) {
			return errs.BadRequest(err)
		}
		return fmt.Errorf("query: index[%d]: %w", index, err)
	}

	etag := fmt.Sprintf("%q", archive.Fingerprint(rec.Block))
	w.Header().Set("ETag", etag)
	w.Header().Set(SourceHeader, string(rec.Source))

	if r.Header.Get("If-None-Match") == etag {
		return web.Respond(ctx, w, nil, http.StatusNotModified)
	}

	return web.Respond(ctx, w, toAppRecord(rec), http.StatusOK)
}

// QueryRange returns the blocks in the inclusive range.
func (h Handlers) QueryRange(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := web.ParamInt64(r, "from")
	if err != nil {
		return errs.BadRequest(err)
	}

	to, err := web.ParamInt64(r, "to")
	if err != nil {
		return errs.BadRequest(err)
	}

	recs, err := h.Archive.QueryRange(ctx, from, to)
	if err != nil {
		if errors.Is(err, procedural.ErrInvalidArgument) {
			return errs.BadRequest(err)
		}
		return fmt.Errorf("query: from[%d] to[%d]: %w", from, to, err)
	}

	return web.Respond(ctx, w, toAppRecords(recs), http.StatusOK)
}

// Verify checks a submitted block against the generator.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app AppVerifyBlock
	if err := web.Decode(r, &app); err != nil {
		return errs.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
	}

	if err := validate.Check(app); err != nil {
		return err
	}

	rpt, err := h.Archive.Verify(toCoreBlock(app))
	if err != nil {
		if errors.Is(err, procedural.ErrInvalidArgument) {
			return errs.BadRequest(err)
		}
		return fmt.Errorf("verify: index[%d]: %w", app.Index, err)
	}

	if !rpt.Valid {
		h.Log.Infow("verify", "traceid", web.GetTraceID(ctx), "index", rpt.Index, "problems", len(rpt.Problems))
	}

	return web.Respond(ctx, w, rpt, http.StatusOK)
}

// Checksum returns the terminal checksum of the submitted text.
func (h Handlers) Checksum(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app AppChecksum
	if err := web.Decode(r, &app); err != nil {
		return errs.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
	}

	if err := validate.Check(app); err != nil {
		return err
	}

	res := AppChecksumResult{
		Checksum: procedural.Checksum(app.Text),
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}
