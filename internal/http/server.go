// Package httpapp wires the echo HTTP server for the acquisition API.
package httpapp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ledgermatch/sheetgate/internal/config"
	"github.com/ledgermatch/sheetgate/internal/http/handlers"
	"github.com/ledgermatch/sheetgate/internal/sheets"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, client *sheets.Client, logger *slog.Logger) (*EchoServer, error) {
	h := &handlers.Handlers{Cfg: cfg, Sheets: client, Logger: logger}
	es := &EchoServer{h: h, e: echo.New()}
	es.e.HideBanner = true
	es.e.HidePort = true
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.Use(requestIDMiddleware)
	es.e.Use(corsMiddleware)
	es.e.Use(es.requestLogMiddleware)

	es.e.GET("/healthz", es.h.HandleHealthz)

	// The import UI sends POST; every other verb on this route (pre-flight
	// OPTIONS included) is answered with an empty success.
	es.e.Any("/api/sheets/fetch", es.h.HandleFetch)
}

// corsMiddleware adds permissive cross-origin headers to every response and
// answers pre-flight OPTIONS with 200 and no body.
func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}
		return next(c)
	}
}

func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(handlers.ContextKeyRequestID, requestID)
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)
		return next(c)
	}
}

func (es *EchoServer) requestLogMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		requestID, _ := c.Get(handlers.ContextKeyRequestID).(string)
		es.h.Log().Info("http request",
			"request_id", requestID,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
}

// Start starts the HTTP server.
func (es *EchoServer) Start(addr string) error {
	return es.e.Start(addr)
}

// StartServer starts the HTTP server with a custom http.Server.
func (es *EchoServer) StartServer(server *http.Server) error {
	return es.e.StartServer(server)
}

// Shutdown gracefully shuts down the HTTP server.
func (es *EchoServer) Shutdown(ctx context.Context) error {
	return es.e.Shutdown(ctx)
}
