// Package handlers contains the HTTP handler logic for the acquisition API.
package handlers

import (
	"log/slog"

	"github.com/ledgermatch/sheetgate/internal/config"
	"github.com/ledgermatch/sheetgate/internal/sheets"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging.
	ContextKeyRequestID = "request_id"
)

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg    config.Config
	Sheets *sheets.Client
	Logger *slog.Logger
}

// Log returns the configured logger, falling back to the process default.
func (h *Handlers) Log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// FallbackCredential is the deployment-wide default credential, zero when the
// deployment has none configured.
func (h *Handlers) FallbackCredential() sheets.Credential {
	return sheets.Credential{
		ClientEmail: h.Cfg.ServiceAccountEmail,
		PrivateKey:  h.Cfg.ServiceAccountKey,
	}
}
