package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/common"
)

// HTTPClient talks JSON to the document API. Transient failures (network
// errors, 5xx) are retried with capped exponential backoff; everything else
// surfaces immediately.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// NewHTTPClient builds a client for the given base URL ("http://host:port").
func NewHTTPClient(baseURL string, tokens TokenStore) *HTTPClient {
	base := strings.TrimRight(baseURL, "/")
	return &HTTPClient{
		baseURL: base,
		tokens:  tokens,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &authTransport{
				base:    http.DefaultTransport,
				baseURL: base,
				tokens:  tokens,
			},
		},
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do issues one JSON request and decodes the response into out (when out is
// non-nil). Network errors and 5xx responses are marked retryable.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("server error: %s", resp.Status))
		}
		if resp.StatusCode >= 400 {
			return mapAPIError(resp)
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	})
}

func mapAPIError(resp *http.Response) error {
	var apiErr api.Error
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(b, &apiErr)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		if apiErr.Code == "user_exists" {
			return common.ErrUserAlreadyExists
		}
		return common.ErrVersionConflict
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	}
	if apiErr.Message != "" {
		return fmt.Errorf("api error: %s", apiErr.Message)
	}
	return fmt.Errorf("api error: %s", resp.Status)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var out api.PingResponse
	return c.do(ctx, http.MethodGet, "/api/v1/ping", nil, &out)
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/register",
		api.RegisterRequest{Username: username, Password: password}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (api.TokenPair, error) {
	var pair api.TokenPair
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login",
		api.LoginRequest{Username: username, Password: password}, &pair)
	if err != nil {
		return api.TokenPair{}, err
	}
	if err := c.tokens.Save(ctx, pair); err != nil {
		return api.TokenPair{}, fmt.Errorf("failed to persist tokens: %w", err)
	}
	return pair, nil
}

func (c *HTTPClient) GetDocument(ctx context.Context, id string) (*api.Document, error) {
	var doc api.Document
	err := c.do(ctx, http.MethodGet, "/api/v1/documents/"+url.PathEscape(id), nil, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) UpsertDocument(ctx context.Context, doc api.Document) error {
	return c.do(ctx, http.MethodPut, "/api/v1/documents/"+url.PathEscape(doc.ID), doc, nil)
}

func (c *HTTPClient) Query(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error) {
	var out api.QueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/query", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpsertDevice(ctx context.Context, d api.Device) error {
	return c.do(ctx, http.MethodPut, "/api/v1/devices/"+url.PathEscape(d.DeviceID), d, nil)
}

func (c *HTTPClient) ReferencePack(ctx context.Context, jurisdiction string) (*api.ReferencePack, error) {
	var pack api.ReferencePack
	path := "/api/v1/reference?jurisdiction=" + url.QueryEscape(jurisdiction)
	if err := c.do(ctx, http.MethodGet, path, nil, &pack); err != nil {
		return nil, err
	}
	return &pack, nil
}

func (c *HTTPClient) PresignPut(ctx context.Context) (string, string, error) {
	var out api.PresignPutResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/attachments/presign-put", nil, &out); err != nil {
		return "", "", err
	}
	return out.Key, out.URL, nil
}

func (c *HTTPClient) PresignGet(ctx context.Context, key string) (string, error) {
	var out api.PresignGetResponse
	path := "/api/v1/attachments/presign-get?key=" + url.QueryEscape(key)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
