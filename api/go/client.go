// Package videolib is a typed client for the video library api.
package videolib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aep/videolib/api"
	"github.com/oapi-codegen/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Doer performs HTTP requests.
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestEditorFn is the function signature for the RequestEditor callback function
type RequestEditorFn func(ctx context.Context, req *http.Request) error

type ClientOption func(*Client) error

type Client struct {
	// Server is the base url, e.g. http://localhost:3001/ . The /api prefix is added by the client.
	Server string

	Client HttpRequestDoer

	RequestEditors []RequestEditorFn
}

func NewClient(server string, opts ...ClientOption) (*Client, error) {
	client := Client{
		Server: server,
	}
	for _, o := range opts {
		if err := o(&client); err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(client.Server, "/") {
		client.Server += "/"
	}
	if client.Client == nil {
		client.Client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &client, nil
}

func WithHTTPClient(doer HttpRequestDoer) ClientOption {
	return func(c *Client) error {
		c.Client = doer
		return nil
	}
}

func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *Client) error {
		c.RequestEditors = append(c.RequestEditors, fn)
		return nil
	}
}

func (c *Client) applyEditors(ctx context.Context, req *http.Request, additionalEditors []RequestEditorFn) error {
	for _, r := range c.RequestEditors {
		if err := r(ctx, req); err != nil {
			return err
		}
	}
	for _, r := range additionalEditors {
		if err := r(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) ListVideos(ctx context.Context, params *api.ListParams, reqEditors ...RequestEditorFn) (*api.VideoList, error) {
	q, err := listQuery(params)
	if err != nil {
		return nil, err
	}
	return do[api.VideoList](ctx, c, http.MethodGet, "api/videos", q, nil, reqEditors)
}

func (c *Client) GetVideo(ctx context.Context, id string, reqEditors ...RequestEditorFn) (*api.Video, error) {
	return do[api.Video](ctx, c, http.MethodGet, "api/videos/"+url.PathEscape(id), nil, nil, reqEditors)
}

func (c *Client) CreateVideo(ctx context.Context, body api.CreateVideoRequest, reqEditors ...RequestEditorFn) (*api.Video, error) {
	return do[api.Video](ctx, c, http.MethodPost, "api/videos", nil, body, reqEditors)
}

func (c *Client) UpdateVideo(ctx context.Context, id string, body api.UpdateVideoRequest, reqEditors ...RequestEditorFn) (*api.Video, error) {
	return do[api.Video](ctx, c, http.MethodPut, "api/videos/"+url.PathEscape(id), nil, body, reqEditors)
}

func (c *Client) DeleteVideo(ctx context.Context, id string, reqEditors ...RequestEditorFn) error {
	_, err := do[json.RawMessage](ctx, c, http.MethodDelete, "api/videos/"+url.PathEscape(id), nil, nil, reqEditors)
	return err
}

func (c *Client) Stats(ctx context.Context, reqEditors ...RequestEditorFn) (*api.Stats, error) {
	return do[api.Stats](ctx, c, http.MethodGet, "api/videos/stats", nil, nil, reqEditors)
}

func (c *Client) Tags(ctx context.Context, reqEditors ...RequestEditorFn) ([]api.TagCount, error) {
	tags, err := do[[]api.TagCount](ctx, c, http.MethodGet, "api/tags", nil, nil, reqEditors)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		return []api.TagCount{}, nil
	}
	return *tags, nil
}

func (c *Client) Health(ctx context.Context, reqEditors ...RequestEditorFn) (*api.Health, error) {
	return do[api.Health](ctx, c, http.MethodGet, "api/health", nil, nil, reqEditors)
}

func listQuery(params *api.ListParams) (url.Values, error) {
	queryValues := url.Values{}
	if params == nil {
		return queryValues, nil
	}

	add := func(name string, value interface{}) error {
		queryFrag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
		if err != nil {
			return err
		}
		parsed, err := url.ParseQuery(queryFrag)
		if err != nil {
			return err
		}
		for k, v := range parsed {
			for _, v2 := range v {
				queryValues.Add(k, v2)
			}
		}
		return nil
	}

	for _, p := range []struct {
		name string
		s    *string
		i    *int
	}{
		{name: "sort", s: params.Sort},
		{name: "order", s: params.Order},
		{name: "search", s: params.Search},
		{name: "tags", s: params.Tags},
		{name: "dateFrom", s: params.DateFrom},
		{name: "dateTo", s: params.DateTo},
		{name: "limit", i: params.Limit},
		{name: "offset", i: params.Offset},
	} {
		var err error
		switch {
		case p.s != nil:
			err = add(p.name, *p.s)
		case p.i != nil:
			err = add(p.name, *p.i)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.name, err)
		}
	}

	return queryValues, nil
}

func do[T any](ctx context.Context, c *Client, method string, path string, query url.Values, body interface{}, reqEditors []RequestEditorFn) (*T, error) {
	serverURL, err := url.Parse(c.Server)
	if err != nil {
		return nil, err
	}

	queryURL, err := serverURL.Parse(path)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		queryURL.RawQuery = query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, queryURL.String(), bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if err := c.applyEditors(ctx, req, reqEditors); err != nil {
		return nil, err
	}

	rsp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode >= 300 || !strings.Contains(rsp.Header.Get("Content-Type"), "json") {
		return nil, parseError(rsp)
	}

	var envelope api.Response[T]
	if err := json.NewDecoder(rsp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Success {
		return nil, Error{Code: rsp.StatusCode, Message: envelope.Error, Details: envelope.Details}
	}
	return envelope.Data, nil
}
