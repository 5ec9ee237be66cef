package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/common"
)

// authTransport attaches the bearer access token to every request and, on a
// token-expired 401, refreshes the pair once and replays the request. The
// refresh call itself bypasses this transport.
type authTransport struct {
	base    http.RoundTripper
	baseURL string
	tokens  TokenStore

	mu sync.Mutex // serializes refreshes
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	pair, err := t.tokens.Tokens(req.Context())
	if err != nil {
		return nil, err
	}

	resp, err := t.roundTripWithToken(req, pair.AccessToken)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || pair.RefreshToken == "" {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	var apiErr api.Error
	if json.Unmarshal(body, &apiErr) != nil || apiErr.Code != common.TokenExpiredCode {
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return resp, nil
	}

	fresh, err := t.refresh(req, pair.RefreshToken)
	if err != nil {
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return resp, nil
	}

	return t.roundTripWithToken(req, fresh.AccessToken)
}

func (t *authTransport) roundTripWithToken(req *http.Request, access string) (*http.Response, error) {
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	if access != "" {
		r.Header.Set(common.AuthorizationHeader, "Bearer "+access)
	}
	return t.base.RoundTrip(r)
}

func (t *authTransport) refresh(orig *http.Request, refreshToken string) (api.TokenPair, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	if pair, err := t.tokens.Tokens(orig.Context()); err == nil && pair.RefreshToken != refreshToken {
		return pair, nil
	}

	b, err := json.Marshal(api.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return api.TokenPair{}, err
	}

	req, err := http.NewRequestWithContext(orig.Context(), http.MethodPost,
		t.baseURL+"/api/v1/auth/refresh", bytes.NewReader(b))
	if err != nil {
		return api.TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return api.TokenPair{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return api.TokenPair{}, fmt.Errorf("refresh failed: %s", resp.Status)
	}

	var pair api.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return api.TokenPair{}, err
	}
	if err := t.tokens.Save(orig.Context(), pair); err != nil {
		return api.TokenPair{}, err
	}
	return pair, nil
}
