package handlers

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/ledgermatch/sheetgate/internal/config"
	"github.com/ledgermatch/sheetgate/internal/sheets"
)

func newFetchContext(t *testing.T, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/api/sheets/fetch", reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", rec.Body.String(), err)
	}
	return resp
}

func TestHandleFetch_MissingSpreadsheetID(t *testing.T) {
	t.Parallel()

	h := &Handlers{Sheets: sheets.NewClient(sheets.ClientOptions{})}
	c, rec := newFetchContext(t, http.MethodPost, `{}`)

	if err := h.HandleFetch(c); err != nil {
		t.Fatalf("HandleFetch() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Error != "spreadsheetId is required" {
		t.Fatalf("error = %q, want %q", resp.Error, "spreadsheetId is required")
	}
}

func TestHandleFetch_NonPOSTIsNoOp(t *testing.T) {
	t.Parallel()

	h := &Handlers{Sheets: sheets.NewClient(sheets.ClientOptions{})}

	for _, method := range []string{http.MethodGet, http.MethodOptions, http.MethodPut} {
		c, rec := newFetchContext(t, method, "")
		if err := h.HandleFetch(c); err != nil {
			t.Fatalf("HandleFetch(%s) error = %v", method, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("HandleFetch(%s) status = %d, want %d", method, rec.Code, http.StatusOK)
		}
		if rec.Body.Len() != 0 {
			t.Fatalf("HandleFetch(%s) body = %q, want empty", method, rec.Body.String())
		}
	}
}

func TestHandleFetch_PublicExportSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "a,b,c\n1,2,3")
	}))
	defer server.Close()

	client := sheets.NewClient(sheets.ClientOptions{
		HTTPClient:    server.Client(),
		ExportBaseURL: server.URL,
	})
	h := &Handlers{Sheets: client}

	c, rec := newFetchContext(t, http.MethodPost, `{"spreadsheetId":"abc123"}`)
	if err := h.HandleFetch(c); err != nil {
		t.Fatalf("HandleFetch() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var result sheets.FetchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(result.Values) != 2 || len(result.Values[0]) != 3 {
		t.Fatalf("Values = %#v, want 2x3 grid", result.Values)
	}
}

func TestHandleFetch_UpstreamAccessDeniedPassesStatusThrough(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := sheets.NewClient(sheets.ClientOptions{
		HTTPClient:    server.Client(),
		ExportBaseURL: server.URL,
	})
	h := &Handlers{Sheets: client}

	c, rec := newFetchContext(t, http.MethodPost, `{"spreadsheetId":"abc123"}`)
	if err := h.HandleFetch(c); err != nil {
		t.Fatalf("HandleFetch() error = %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	resp := decodeErrorResponse(t, rec)
	if !strings.Contains(resp.Error, "Access denied") {
		t.Fatalf("error = %q, want access denied", resp.Error)
	}
	if resp.Status != http.StatusForbidden {
		t.Fatalf("status field = %d, want %d", resp.Status, http.StatusForbidden)
	}
	if resp.SpreadsheetID != "abc123" {
		t.Fatalf("spreadsheetId = %q, want %q", resp.SpreadsheetID, "abc123")
	}
}

func TestHandleFetch_BadKeyIsConfigError(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
	}))
	defer server.Close()

	client := sheets.NewClient(sheets.ClientOptions{
		HTTPClient: server.Client(),
		TokenURL:   server.URL + "/token",
	})
	h := &Handlers{Sheets: client}

	body := `{"spreadsheetId":"abc123","serviceAccountEmail":"svc@example.iam.gserviceaccount.com","serviceAccountKey":"not-a-pem-key"}`
	c, rec := newFetchContext(t, http.MethodPost, body)
	if err := h.HandleFetch(c); err != nil {
		t.Fatalf("HandleFetch() error = %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	resp := decodeErrorResponse(t, rec)
	if !strings.Contains(resp.Error, "PEM") {
		t.Fatalf("error = %q, want PEM marker mention", resp.Error)
	}
	if tokenCalls.Load() != 0 {
		t.Fatalf("token calls = %d, want 0", tokenCalls.Load())
	}
}

func TestHandleFetch_TokenExchangeFailureCarriesUpstreamBody(t *testing.T) {
	t.Parallel()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey() error = %v", err)
	}
	pkcs8Bytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		t.Fatalf("x509.MarshalPKCS8PrivateKey() error = %v", err)
	}
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8Bytes}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
	}))
	defer server.Close()

	client := sheets.NewClient(sheets.ClientOptions{
		HTTPClient: server.Client(),
		TokenURL:   server.URL + "/token",
	})
	h := &Handlers{Sheets: client}

	reqBody, err := json.Marshal(sheets.FetchRequest{
		SpreadsheetID:       "abc123",
		ServiceAccountEmail: "svc@example.iam.gserviceaccount.com",
		ServiceAccountKey:   pemKey,
	})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	c, rec := newFetchContext(t, http.MethodPost, string(reqBody))
	if err := h.HandleFetch(c); err != nil {
		t.Fatalf("HandleFetch() error = %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	resp := decodeErrorResponse(t, rec)
	if !strings.Contains(resp.Details, "invalid_client") {
		t.Fatalf("details = %q, want upstream body", resp.Details)
	}
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("status field = %d, want %d", resp.Status, http.StatusUnauthorized)
	}
}

func TestFallbackCredential(t *testing.T) {
	t.Parallel()

	h := &Handlers{Cfg: config.Config{
		ServiceAccountEmail: "cfg@example.iam.gserviceaccount.com",
		ServiceAccountKey:   "cfg-key",
	}}

	cred := h.FallbackCredential()
	if cred.ClientEmail != "cfg@example.iam.gserviceaccount.com" || cred.PrivateKey != "cfg-key" {
		t.Fatalf("FallbackCredential() = %+v, want configured values", cred)
	}
}
