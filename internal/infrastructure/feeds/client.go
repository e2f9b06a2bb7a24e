// Package feeds holds the HTTP clients for the upstream open-data feeds.
// Every feed wraps its records in a {"total_count","items"} envelope and
// pages via page/size query parameters; pages are 1-based.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spotsync/backend/domain"
)

type client struct {
	http    *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

func newClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &client{
		http: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *client) getJSON(ctx context.Context, path string, page, size int, out interface{}) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := fmt.Sprintf("%s%s?page=%d&size=%d", c.baseURL, path, page, size)
	if c.apiKey != "" {
		uri += "&api_key=" + url.QueryEscape(c.apiKey)
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return domain.WrapError(domain.ErrCodeTransient, "feed request failed", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return domain.NewError(domain.ErrCodeTransient,
			fmt.Sprintf("feed %s returned status %d", path, resp.StatusCode()))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "malformed feed response", err)
	}
	return nil
}
