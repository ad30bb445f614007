package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ledgermatch/sheetgate/internal/metrics"
	"github.com/ledgermatch/sheetgate/internal/sheets"
)

// errorResponse is the structured error body every failure is converted to.
type errorResponse struct {
	Error         string `json:"error"`
	Status        int    `json:"status,omitempty"`
	SpreadsheetID string `json:"spreadsheetId,omitempty"`
	Details       string `json:"details,omitempty"`
}

// HandleFetch is the single entry point of the acquisition API. It validates
// the request, runs the resolve/sign/exchange/fetch chain, and converts every
// failure into a structured error response; nothing propagates as an
// unhandled fault.
func (h *Handlers) HandleFetch(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.NoContent(http.StatusOK)
	}

	var req sheets.FetchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON request body"})
	}
	if strings.TrimSpace(req.SpreadsheetID) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "spreadsheetId is required"})
	}

	fallback := h.FallbackCredential()
	strategy, _ := sheets.ResolveStrategy(req, fallback)

	start := time.Now()
	result, err := h.Sheets.Fetch(c.Request().Context(), req, fallback)
	metrics.FetchDuration.WithLabelValues(string(strategy)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.FetchesTotal.WithLabelValues(string(strategy), outcomeForError(err)).Inc()
		return h.writeFetchError(c, req.SpreadsheetID, err)
	}
	metrics.FetchesTotal.WithLabelValues(string(strategy), "ok").Inc()
	return c.JSON(http.StatusOK, result)
}

func (h *Handlers) writeFetchError(c echo.Context, spreadsheetID string, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	h.Log().Error("fetch failed",
		"request_id", requestID,
		"spreadsheet_id", spreadsheetID,
		"error", err,
	)

	var validationErr *sheets.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: validationErr.Message})
	}

	// Malformed credentials are a configuration problem, not a transient
	// fault: 500 with a message precise enough to fix the key.
	if errors.Is(err, sheets.ErrKeyFormat) || errors.Is(err, sheets.ErrKeyTruncated) {
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error:         "Invalid service account key: " + err.Error(),
			SpreadsheetID: spreadsheetID,
		})
	}

	var signingErr *sheets.SigningError
	if errors.As(err, &signingErr) {
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error:         "Failed to sign authentication token",
			SpreadsheetID: spreadsheetID,
			Details:       signingErr.Error(),
		})
	}

	var exchangeErr *sheets.TokenExchangeError
	if errors.As(err, &exchangeErr) {
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error:         "Authentication with the spreadsheet provider failed",
			Status:        exchangeErr.Status,
			SpreadsheetID: spreadsheetID,
			Details:       exchangeErr.Body,
		})
	}

	var upstreamErr *sheets.UpstreamFetchError
	if errors.As(err, &upstreamErr) {
		// Upstream 4xx statuses carry meaning for the caller (not found vs
		// access denied) and pass through; anything else is a bad gateway.
		code := upstreamErr.Status
		if code < 400 || code >= 500 {
			code = http.StatusBadGateway
		}
		return c.JSON(code, errorResponse{
			Error:         upstreamErr.Message,
			Status:        upstreamErr.Status,
			SpreadsheetID: spreadsheetID,
		})
	}

	var emptyErr *sheets.EmptyDataError
	if errors.As(err, &emptyErr) {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:         "No data found in spreadsheet. The sheet may be empty or invalid.",
			SpreadsheetID: spreadsheetID,
		})
	}

	return c.JSON(http.StatusInternalServerError, errorResponse{
		Error:         err.Error(),
		SpreadsheetID: spreadsheetID,
		Details:       fmt.Sprintf("%+v", err),
	})
}

func outcomeForError(err error) string {
	var (
		validationErr *sheets.ValidationError
		signingErr    *sheets.SigningError
		exchangeErr   *sheets.TokenExchangeError
		upstreamErr   *sheets.UpstreamFetchError
		emptyErr      *sheets.EmptyDataError
	)
	switch {
	case errors.Is(err, sheets.ErrKeyFormat), errors.Is(err, sheets.ErrKeyTruncated):
		return "bad_key"
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &signingErr):
		return "signing"
	case errors.As(err, &exchangeErr):
		return "token_exchange"
	case errors.As(err, &upstreamErr):
		return "upstream"
	case errors.As(err, &emptyErr):
		return "empty_data"
	default:
		return "error"
	}
}
