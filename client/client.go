package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http2"
)

// Client peeks and pokes words of a remote region over cleartext HTTP/2.
type Client struct {
	host       string
	maxTimeout time.Duration
	transport  *http2.Transport
	httpClient *http.Client
}

func NewClient(host string, maxTimeout time.Duration) *Client {
	transport := &http2.Transport{
		DialTLS: func(network, addr string, _ *tls.Config) (net.Conn, error) {
			return net.Dial(network, addr)
		},
		AllowHTTP:          true,
		DisableCompression: true,
	}
	httpClient := &http.Client{Transport: transport}
	return &Client{
		host:       host,
		maxTimeout: maxTimeout,
		transport:  transport,
		httpClient: httpClient,
	}
}

func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

func (c *Client) makeUrl(off int) string {
	return fmt.Sprintf("http://%s/%d", c.host, off)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, context.CancelFunc, error) {
	cf := context.CancelFunc(func() {})
	if c.maxTimeout > 0 {
		ctx, cf = context.WithTimeout(ctx, c.maxTimeout)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		cf()
		return nil, nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cf()
		return nil, nil, err
	}
	return resp, cf, nil
}

// Has reports whether a word at off lies inside the remote region.
func (c *Client) Has(ctx context.Context, off int) (bool, error) {
	resp, cf, err := c.do(ctx, http.MethodHead, c.makeUrl(off), nil)
	if err != nil {
		return false, err
	}
	defer cf()
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

func (c *Client) Get(ctx context.Context, off int) (uint64, error) {
	resp, cf, err := c.do(ctx, http.MethodGet, c.makeUrl(off), nil)
	if err != nil {
		return 0, err
	}
	defer cf()
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET offset %d: %s", off, resp.Status)
	}
	return strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
}

func (c *Client) Put(ctx context.Context, off int, val uint64) error {
	body := strings.NewReader(strconv.FormatUint(val, 10))
	resp, cf, err := c.do(ctx, http.MethodPut, c.makeUrl(off), body)
	if err != nil {
		return err
	}
	defer cf()
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PUT offset %d: %s", off, resp.Status)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	resp, cf, err := c.do(ctx, "PING", fmt.Sprintf("http://%s/", c.host), nil)
	if err != nil {
		return err
	}
	defer cf()
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PING: %s", resp.Status)
	}
	return nil
}
