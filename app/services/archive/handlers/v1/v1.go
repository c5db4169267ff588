// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/archive/app/services/archive/handlers/v1/blockgrp"
	"github.com/ardanlabs/archive/app/services/archive/handlers/v1/netgrp"
	"github.com/ardanlabs/archive/business/core/archive"
	"github.com/ardanlabs/archive/foundation/events"
	"github.com/ardanlabs/archive/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	Archive *archive.Core
	Evts    *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	bgh := blockgrp.Handlers{
		Log:     cfg.Log,
		Archive: cfg.Archive,
	}

	app.Handle(http.MethodGet, version, "/blocks/:index", bgh.QueryByIndex)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", bgh.QueryRange)
	app.Handle(http.MethodPost, version, "/blocks/verify", bgh.Verify)
	app.Handle(http.MethodPost, version, "/checksum", bgh.Checksum)

	ngh := netgrp.Handlers{
		Log:     cfg.Log,
		Archive: cfg.Archive,
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/network/nodes/:index", ngh.QueryNode)
	app.Handle(http.MethodGet, version, "/network/status", ngh.Status)
	app.Handle(http.MethodGet, version, "/events", ngh.Events)
}
