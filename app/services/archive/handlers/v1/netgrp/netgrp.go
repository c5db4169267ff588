// Package netgrp maintains the group of handlers for the archive network.
package netgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/archive/business/core/archive"
	"github.com/ardanlabs/archive/business/web/errs"
	"github.com/ardanlabs/archive/foundation/events"
	"github.com/ardanlabs/archive/foundation/procedural"
	"github.com/ardanlabs/archive/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of network endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Archive *archive.Core
	Evts    *events.Events
	WS      websocket.Upgrader
}

// appNode is a network station as returned to the client.
type appNode struct {
	Index    int64  `json:"index"`
	Name     string `json:"name"`
	Tier     int    `json:"tier"`
	TierName string `json:"tier_name"`
}

// QueryNode returns the network station at the specified index.
func (h Handlers) QueryNode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := web.ParamInt64(r, "index")
	if err != nil {
		return errs.BadRequest(err)
	}

	node, err := h.Archive.QueryNode(ctx, index)
	if err != nil {
		if errors.Is(err, procedural.ErrInvalidArgument) {
			return errs.BadRequest(err)
		}
		return fmt.Errorf("query: node[%d]: %w", index, err)
	}

	app := appNode{
		Index:    node.Index,
		Name:     node.Name,
		Tier:     int(node.Tier),
		TierName: node.Tier.String(),
	}

	return web.Respond(ctx, w, app, http.StatusOK)
}

// Status returns the generator settings and the backend state.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Archive.Status(ctx), http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	v.StatusCode = http.StatusSwitchingProtocols

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
