package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ledgermatch/sheetgate/internal/metrics"
)

const grantTypeJWTBearer = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// exchangeToken trades a signed assertion for a short-lived access token.
// Every fetch performs a fresh exchange; tokens are never cached.
func (c *Client) exchangeToken(ctx context.Context, assertion string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", grantTypeJWTBearer)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("transport_error").Inc()
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("transport_error").Inc()
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.TokenExchangesTotal.WithLabelValues("rejected").Inc()
		return "", &TokenExchangeError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("bad_response").Inc()
		return "", fmt.Errorf("decode oauth token response: %w", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		metrics.TokenExchangesTotal.WithLabelValues("bad_response").Inc()
		return "", errors.New("oauth token response missing access_token")
	}
	metrics.TokenExchangesTotal.WithLabelValues("ok").Inc()
	return payload.AccessToken, nil
}
