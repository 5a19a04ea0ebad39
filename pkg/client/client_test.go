package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockHttpRequest struct {
	Body       io.ReadCloser
	StatusCode int
}

func NewMockHttpRequestFromString(s string, statusCode int) *MockHttpRequest {
	return &MockHttpRequest{
		Body:       io.NopCloser(strings.NewReader(s)),
		StatusCode: statusCode,
	}
}

func (a *MockHttpRequest) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		Request:    req,
		StatusCode: a.StatusCode,
		Body:       a.Body,
	}, nil
}

// MockHttpSequence replays one canned response per request, in order.
type MockHttpSequence struct {
	Responses []*MockHttpRequest
	Requests  []*http.Request
}

func (a *MockHttpSequence) Do(req *http.Request) (*http.Response, error) {
	a.Requests = append(a.Requests, req)
	next := a.Responses[0]
	a.Responses = a.Responses[1:]
	return next.Do(req)
}

func TestMockHttpRequest(t *testing.T) {
	url := "http://localhost:8080/v2/status"
	req, err := http.NewRequest("GET", url, nil)
	require.Nil(t, err)
	req.Header.Set(AlgodApiKeyHeader, "123456")

	rs := NewMockHttpRequestFromString("", 200)
	resp, err := rs.Do(req)
	require.Nil(t, err)
	assert.Equal(t, url, resp.Request.URL.String())
	assert.Equal(t, "123456", resp.Request.Header.Get(AlgodApiKeyHeader))
}

func TestJoinUrl(t *testing.T) {
	url, err := joinUrl("http://localhost:8080", "/v2/status")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v2/status", url.String())

	url, err = joinUrl("http://example.com/node-0", "/v2/transactions/params")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/node-0/v2/transactions/params", url.String())

	url, err = joinUrl("http://localhost:8080", "/v2/transactions/pending/TXID?format=json")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v2/transactions/pending/TXID?format=json", url.String())

	_, err = joinUrl("http://localhost:8080", "http://elsewhere.com/abs")
	assert.Error(t, err)
}

func TestMergeOptions(t *testing.T) {
	opts, err := merge(defaultAlgodOptions, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", opts.BaseUrl)

	opts, err = merge(defaultAlgodOptions, []Options{{BaseUrl: "URL", ApiKey: "key"}})
	require.NoError(t, err)
	assert.Equal(t, "URL", opts.BaseUrl)
	assert.Equal(t, "key", opts.ApiKey)
	assert.Equal(t, defaultAlgodOptions.Client, opts.Client)

	_, err = merge(defaultAlgodOptions, []Options{{}, {}})
	assert.Error(t, err)
}

func TestDoHttpCancelledContext(t *testing.T) {
	client, err := NewAlgod()
	require.Nil(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = client.Status(ctx)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestRequestErrorBody(t *testing.T) {
	client, err := NewAlgod(Options{
		Client: NewMockHttpRequestFromString(`{"message":"no such transaction"}`, 404),
	})
	require.NoError(t, err)
	_, _, err = client.PendingTransactionInfo(context.Background(), "TXID")
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Contains(t, reqErr.Body, "no such transaction")
	assert.Contains(t, reqErr.Error(), "404")
}

func TestParseError(t *testing.T) {
	client, err := NewAlgod(Options{
		Client: NewMockHttpRequestFromString("not json", 200),
	})
	require.NoError(t, err)
	_, _, err = client.Status(context.Background())
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
