// Package gateway talks to the messaging gateway that owns the chat connection.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskbot/internal/config"
)

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// Client posts outbound messages to GATEWAY_URL/send.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	token   string
	suffix  string
	timeout time.Duration
}

func New(cfg config.GatewayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			Name:         "taskbot",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		suffix:  cfg.AddressSuffix,
		timeout: timeout,
	}
}

// WithDial replaces the dialer, mainly for in-memory listeners in tests.
func (c *Client) WithDial(dial fasthttp.DialFunc) *Client {
	c.http.Dial = dial
	return c
}

// Address turns a bare handle into the gateway's chat address.
func (c *Client) Address(handle string) string {
	if c.suffix == "" || strings.Contains(handle, "@") {
		return handle
	}
	return handle + c.suffix
}

// Send delivers text to handle.
func (c *Client) Send(ctx context.Context, handle, text string) error {
	body, err := json.Marshal(sendRequest{To: c.Address(handle), Text: text})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/send")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	c.authorize(req)
	req.SetBody(body)

	if err := c.do(ctx, req, resp); err != nil {
		return fmt.Errorf("gateway send: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("gateway send: status %d: %s", code, truncate(resp.Body(), 200))
	}
	return nil
}

// Ping checks GATEWAY_URL/health.
func (c *Client) Ping(ctx context.Context) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/health")
	req.Header.SetMethod(fasthttp.MethodGet)
	c.authorize(req)

	if err := c.do(ctx, req, resp); err != nil {
		return err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("gateway health: status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) authorize(req *fasthttp.Request) {
	if c.token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.token)
	}
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return c.http.DoDeadline(req, resp, deadline)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
