// Package sheets retrieves tabular spreadsheet data for import, either
// through the authenticated values API with a service-account credential or
// through the unauthenticated public CSV export of the first sheet tab.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultTokenURL      = "https://oauth2.googleapis.com/token"
	defaultValuesBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	defaultExportBaseURL = "https://docs.google.com/spreadsheets/d"
	defaultFetchTimeout  = 120 * time.Second

	readOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

	// valuesRange is the fixed cell range read on the authenticated path,
	// large enough to cover any sheet an import realistically touches.
	valuesRange = "A1:ZZ10000"

	// minExportBodyLen is the shortest CSV export body treated as real data.
	// Anything shorter is an empty or invalid sheet, not a one-cell import.
	minExportBodyLen = 10

	maxResponseBytes = 8 << 20
)

// FetchRequest is one spreadsheet read. The credential fields are optional
// per-request overrides of the configured default.
type FetchRequest struct {
	SpreadsheetID       string `json:"spreadsheetId"`
	ServiceAccountEmail string `json:"serviceAccountEmail,omitempty"`
	ServiceAccountKey   string `json:"serviceAccountKey,omitempty"`
}

// FetchResult is the row/column grid both fetch paths produce, so consumers
// never care which path served them.
type FetchResult struct {
	Values [][]string `json:"values"`
}

// ClientOptions overrides client collaborators, mainly for tests and
// self-hosted proxies.
type ClientOptions struct {
	HTTPClient    *http.Client
	TokenURL      string
	ValuesBaseURL string
	ExportBaseURL string
	Scope         string

	// TokenSource, when set, replaces the assertion/exchange chain with an
	// externally managed token (for example an ADC token source).
	TokenSource oauth2.TokenSource

	// Now replaces the wall clock used for assertion timestamps.
	Now func() time.Time
}

// Client performs spreadsheet reads. It holds no per-request state: every
// Fetch runs a full normalize→sign→exchange→read chain of its own.
type Client struct {
	http          *http.Client
	tokenURL      string
	valuesBaseURL string
	exportBaseURL string
	scope         string
	tokenSource   oauth2.TokenSource
	now           func() time.Time
}

func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}

	tokenURL := strings.TrimSpace(opts.TokenURL)
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	valuesBaseURL := strings.TrimRight(strings.TrimSpace(opts.ValuesBaseURL), "/")
	if valuesBaseURL == "" {
		valuesBaseURL = defaultValuesBaseURL
	}
	exportBaseURL := strings.TrimRight(strings.TrimSpace(opts.ExportBaseURL), "/")
	if exportBaseURL == "" {
		exportBaseURL = defaultExportBaseURL
	}
	scope := strings.TrimSpace(opts.Scope)
	if scope == "" {
		scope = readOnlyScope
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		http:          httpClient,
		tokenURL:      tokenURL,
		valuesBaseURL: valuesBaseURL,
		exportBaseURL: exportBaseURL,
		scope:         scope,
		tokenSource:   opts.TokenSource,
		now:           now,
	}
}

// Fetch resolves the credential strategy for the request and runs the
// matching path. fallback is the deployment-wide default credential; pass the
// zero value when none is configured.
func (c *Client) Fetch(ctx context.Context, req FetchRequest, fallback Credential) (*FetchResult, error) {
	spreadsheetID := strings.TrimSpace(req.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, &ValidationError{Message: "spreadsheetId is required"}
	}

	strategy, cred := ResolveStrategy(req, fallback)
	if strategy == StrategyPublicExport {
		return c.fetchPublicExport(ctx, spreadsheetID)
	}
	return c.fetchAuthenticated(ctx, spreadsheetID, cred)
}

func (c *Client) fetchAuthenticated(ctx context.Context, spreadsheetID string, cred Credential) (*FetchResult, error) {
	accessToken, err := c.accessToken(ctx, cred)
	if err != nil {
		return nil, err
	}

	requestURL := c.valuesBaseURL + "/" + url.PathEscape(spreadsheetID) + "/values/" + url.PathEscape(valuesRange)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapValuesStatus(resp.StatusCode, respBody)
	}

	var payload struct {
		Range          string     `json:"range"`
		MajorDimension string     `json:"majorDimension"`
		Values         [][]string `json:"values"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("decode spreadsheet values response: %w", err)
	}
	return &FetchResult{Values: payload.Values}, nil
}

func (c *Client) accessToken(ctx context.Context, cred Credential) (string, error) {
	if c.tokenSource != nil {
		token, err := c.tokenSource.Token()
		if err != nil {
			return "", err
		}
		return token.AccessToken, nil
	}

	assertion, err := buildAssertion(cred, c.scope, c.tokenURL, c.now())
	if err != nil {
		return "", err
	}
	return c.exchangeToken(ctx, assertion)
}

func mapValuesStatus(status int, body []byte) *UpstreamFetchError {
	e := &UpstreamFetchError{Status: status, Body: strings.TrimSpace(string(body))}
	switch status {
	case http.StatusNotFound:
		e.Message = "Spreadsheet not found. Check the spreadsheet ID."
	case http.StatusForbidden:
		e.Message = "Access denied. Share the spreadsheet with the service account email."
	default:
		e.Message = fmt.Sprintf("Failed to fetch spreadsheet data: status=%d body=%s", status, e.Body)
	}
	return e
}

func (c *Client) fetchPublicExport(ctx context.Context, spreadsheetID string) (*FetchResult, error) {
	requestURL := c.exportBaseURL + "/" + url.PathEscape(spreadsheetID) + "/export?format=csv&gid=0"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapExportStatus(resp.StatusCode, respBody)
	}

	body := strings.TrimSpace(string(respBody))
	if len(body) < minExportBodyLen {
		return nil, &EmptyDataError{Length: len(body)}
	}
	return &FetchResult{Values: splitExportCSV(body)}, nil
}

func mapExportStatus(status int, body []byte) *UpstreamFetchError {
	e := &UpstreamFetchError{Status: status, Body: strings.TrimSpace(string(body))}
	switch status {
	case http.StatusNotFound:
		e.Message = "Spreadsheet not found. Check the URL."
	case http.StatusForbidden, http.StatusUnauthorized:
		e.Message = "Access denied. Provide a service account or make the spreadsheet public."
	default:
		e.Message = fmt.Sprintf("Failed to fetch spreadsheet export: status=%d", status)
	}
	return e
}

// splitExportCSV splits the export body on line breaks and commas. This is a
// deliberate simplification, not a CSV parser: cells containing commas or
// embedded newlines will mis-split. Imports needing quoted-field semantics
// must go through the authenticated path.
func splitExportCSV(body string) [][]string {
	lines := strings.Split(body, "\n")
	values := make([][]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		values = append(values, strings.Split(line, ","))
	}
	return values
}
