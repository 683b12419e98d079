// Package gateway is the single way the dashboard talks to remote HTTP APIs.
//
// It turns relative paths into absolute URLs, encodes JSON or multipart bodies,
// decodes whatever comes back (JSON when possible, raw text otherwise) and
// normalises every non-2xx response into a *RequestError. Each call is a single
// attempt: there are no retries and no built-in timeout.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

// Options describes one request.
type Options struct {
	Method string
	Body   any
	Form   *Form
	Header map[string]string
}

// Client sends requests relative to a fixed base URL.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	logger  *logrus.Entry
}

func NewClient(baseURL string, logger *logrus.Entry) *Client {
	if logger == nil {
		logger = logrus.WithField("component", "gateway")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			Name: "babyshop-dashboard",
		},
		logger: logger,
	}
}

// BaseURL returns the base every relative path is joined onto.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL builds the absolute URL for path. Absolute http(s) URLs are returned
// verbatim; anything else is joined onto the base with exactly one slash.
func (c *Client) URL(path string) string {
	if isAbsolute(path) {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return c.baseURL + path
	}
	return c.baseURL + "/" + path
}

// Resolve turns a server-relative asset path (an uploaded image, say) into an
// absolute URL. Empty input stays empty.
func (c *Client) Resolve(path string) string {
	if path == "" {
		return ""
	}
	return c.URL(path)
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Request performs one HTTP call and returns the decoded body: a JSON value
// (numbers as json.Number), the raw text when the body is not JSON, or nil when
// the body is empty.
func (c *Client) Request(ctx context.Context, path string, opts Options) (any, error) {
	method := opts.Method
	if method == "" {
		method = fasthttp.MethodGet
	}
	url := c.URL(path)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json, text/plain, */*")
	for k, v := range opts.Header {
		req.Header.Set(k, v)
	}

	switch {
	case opts.Form != nil:
		body, contentType, err := opts.Form.Encode()
		if err != nil {
			return nil, fmt.Errorf("encode form for %s %s: %w", method, url, err)
		}
		req.Header.SetContentType(contentType)
		req.SetBody(body)
	case opts.Body != nil:
		body, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body for %s %s: %w", method, url, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"url":    url,
		}).WithError(err).Warn("request did not complete")
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}

	status := resp.StatusCode()
	data := decodeBody(resp.Body())

	if status < 200 || status > 299 {
		reqErr := newRequestError(status, data)
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"url":    url,
			"status": status,
		}).Debug(reqErr.Message)
		return nil, reqErr
	}
	return data, nil
}

func decodeBody(raw []byte) any {
	text := string(raw) // copies out of the pooled response buffer
	if text == "" {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return text
	}
	return v
}

func (c *Client) Get(ctx context.Context, path string) (any, error) {
	return c.Request(ctx, path, Options{Method: fasthttp.MethodGet})
}

func (c *Client) Post(ctx context.Context, path string, body any) (any, error) {
	return c.Request(ctx, path, Options{Method: fasthttp.MethodPost, Body: body})
}
