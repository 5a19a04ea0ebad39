// Package client provides thin HTTP clients for the algod, kmd and
// indexer daemons. It is a boundary layer only: request building,
// response decoding and typed errors, no protocol logic.
package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Header names carrying the API token of each daemon.
const (
	AlgodApiKeyHeader   = "X-Algo-API-Token"
	KmdApiKeyHeader     = "X-KMD-API-Token"
	IndexerApiKeyHeader = "X-Indexer-API-Token"
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	BaseUrl string
	ApiKey  string
	Client  Doer
}

// merge fills unset fields of the given options from defaults.
func merge(defaults Options, options []Options) (Options, error) {
	if len(options) > 1 {
		return Options{}, errors.New("too many options provided. Expects no or just one item")
	}
	opts := defaults
	if len(options) == 1 {
		option := options[0]
		if option.BaseUrl != "" {
			opts.BaseUrl = option.BaseUrl
		}
		if option.ApiKey != "" {
			opts.ApiKey = option.ApiKey
		}
		if option.Client != nil {
			opts.Client = option.Client
		}
	}
	return opts, nil
}

type Response struct {
	*http.Response
}

func newResponse(response *http.Response) *Response {
	return &Response{
		Response: response,
	}
}

func withContext(ctx context.Context, req *http.Request) *http.Request {
	return req.WithContext(ctx)
}

func doHttp(ctx context.Context, options Options, req *http.Request, v any) (*Response, error) {
	req = withContext(ctx, req)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := options.Client.Do(req)
	if err != nil {
		return nil, newRequestError(err, "")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close() // No error handling intentionally
	}(resp.Body)

	response := newResponse(resp)

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		return response, newRequestError(
			errors.Errorf("Invalid status code: expect 200 got %d", response.StatusCode),
			string(body),
		)
	}

	select {
	case <-ctx.Done():
		return response, ctx.Err()
	default:
	}

	if v != nil {
		if w, ok := v.(io.Writer); ok {
			if _, err := io.Copy(w, resp.Body); err != nil {
				return nil, err
			}
		} else {
			if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
				return response, newParseError(err)
			}
		}
	}

	return response, err
}

func joinUrl(baseRaw string, pathRaw string) (*url.URL, error) {
	base, err := url.Parse(baseRaw)
	if err != nil {
		return nil, err
	}

	rel, err := url.Parse(pathRaw)
	if err != nil {
		return nil, err
	}
	if rel.IsAbs() {
		return nil, errors.New("path must be relative URL")
	}
	res := base.JoinPath(rel.EscapedPath())

	q := res.Query()
	for k, vals := range rel.Query() {
		for _, v := range vals {
			q.Add(k, v)
		}
	}
	res.RawQuery = q.Encode()

	return res, nil
}
