package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/algonaut/goalgo/pkg/crypto"
	"github.com/algonaut/goalgo/pkg/proto"
)

// suggestedValidWindow is the round window handed out with suggested
// parameters when the caller has no stronger preference.
const suggestedValidWindow = 1000

var defaultAlgodOptions = Options{
	BaseUrl: "http://localhost:8080",
	Client:  &http.Client{Timeout: 3 * time.Second},
}

// Algod is a client for the node daemon's REST API.
type Algod struct {
	options Options
}

// NewAlgod creates a node client. If no options provided will use default.
func NewAlgod(options ...Options) (*Algod, error) {
	opts, err := merge(defaultAlgodOptions, options)
	if err != nil {
		return nil, err
	}
	return &Algod{options: opts}, nil
}

func (a *Algod) GetOptions() Options {
	return a.options
}

func (a *Algod) newRequest(method, path string, body []byte) (*http.Request, error) {
	url, err := joinUrl(a.options.BaseUrl, path)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url.String(), reader)
	if err != nil {
		return nil, err
	}
	if a.options.ApiKey != "" {
		req.Header.Set(AlgodApiKeyHeader, a.options.ApiKey)
	}
	return req, nil
}

// Health checks that the node is up. The endpoint has an empty body.
func (a *Algod) Health(ctx context.Context) (*Response, error) {
	req, err := a.newRequest("GET", "/health", nil)
	if err != nil {
		return nil, err
	}
	return doHttp(ctx, a.options, req, nil)
}

type NodeStatus struct {
	LastRound            uint64 `json:"last-round"`
	LastVersion          string `json:"last-version"`
	NextVersion          string `json:"next-version"`
	NextVersionRound     uint64 `json:"next-version-round"`
	NextVersionSupported bool   `json:"next-version-supported"`
	TimeSinceLastRound   uint64 `json:"time-since-last-round"`
	CatchupTime          uint64 `json:"catchup-time"`
}

func (a *Algod) Status(ctx context.Context) (*NodeStatus, *Response, error) {
	req, err := a.newRequest("GET", "/v2/status", nil)
	if err != nil {
		return nil, nil, err
	}
	out := new(NodeStatus)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return nil, response, err
	}
	return out, response, nil
}

// StatusAfterBlock blocks until the node sees a round past the given
// one, then reports the status.
func (a *Algod) StatusAfterBlock(ctx context.Context, round uint64) (*NodeStatus, *Response, error) {
	req, err := a.newRequest("GET", fmt.Sprintf("/v2/status/wait-for-block-after/%d", round), nil)
	if err != nil {
		return nil, nil, err
	}
	out := new(NodeStatus)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return nil, response, err
	}
	return out, response, nil
}

type transactionParams struct {
	ConsensusVersion string `json:"consensus-version"`
	Fee              uint64 `json:"fee"`
	GenesisID        string `json:"genesis-id"`
	GenesisHash      []byte `json:"genesis-hash"`
	LastRound        uint64 `json:"last-round"`
	MinFee           uint64 `json:"min-fee"`
}

// SuggestedParams fetches the fee and round window to build the next
// transaction with.
func (a *Algod) SuggestedParams(ctx context.Context) (proto.SuggestedParams, *Response, error) {
	req, err := a.newRequest("GET", "/v2/transactions/params", nil)
	if err != nil {
		return proto.SuggestedParams{}, nil, err
	}
	out := new(transactionParams)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return proto.SuggestedParams{}, response, err
	}
	gh, err := crypto.NewDigestFromBytes(out.GenesisHash)
	if err != nil {
		return proto.SuggestedParams{}, response, newParseError(err)
	}
	return proto.SuggestedParams{
		Fee:         out.Fee,
		FirstValid:  out.LastRound,
		LastValid:   out.LastRound + suggestedValidWindow,
		GenesisID:   out.GenesisID,
		GenesisHash: gh,
		MinFee:      out.MinFee,
	}, response, nil
}

type PendingTransaction struct {
	ConfirmedRound   uint64 `json:"confirmed-round"`
	PoolError        string `json:"pool-error"`
	AssetIndex       uint64 `json:"asset-index"`
	ApplicationIndex uint64 `json:"application-index"`
}

func (a *Algod) PendingTransactionInfo(ctx context.Context, txid string) (*PendingTransaction, *Response, error) {
	req, err := a.newRequest("GET", fmt.Sprintf("/v2/transactions/pending/%s?format=json", txid), nil)
	if err != nil {
		return nil, nil, err
	}
	out := new(PendingTransaction)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return nil, response, err
	}
	return out, response, nil
}

type sendResponse struct {
	TxID string `json:"txId"`
}

// SendRawTransaction submits one or more signed transactions as raw
// concatenated canonical bytes and returns the id of the first one.
func (a *Algod) SendRawTransaction(ctx context.Context, stx []byte) (string, *Response, error) {
	req, err := a.newRequest("POST", "/v2/transactions", stx)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/x-binary")
	out := new(sendResponse)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return "", response, err
	}
	return out.TxID, response, nil
}

// WaitForConfirmation polls the node round by round until the
// transaction leaves the pool. A zero waitRounds waits without bound.
func (a *Algod) WaitForConfirmation(ctx context.Context, txid string, waitRounds uint64) (*PendingTransaction, error) {
	status, _, err := a.Status(ctx)
	if err != nil {
		return nil, err
	}
	current := status.LastRound + 1
	last := uint64(0)
	if waitRounds > 0 {
		last = current + waitRounds
	}
	for {
		info, _, err := a.PendingTransactionInfo(ctx, txid)
		if err != nil {
			return nil, err
		}
		if info.ConfirmedRound > 0 {
			return info, nil
		}
		if info.PoolError != "" {
			return nil, errors.Errorf("transaction %s rejected by pool: %s", txid, info.PoolError)
		}
		if last > 0 && current > last {
			return nil, errors.Errorf("transaction %s not confirmed after %d rounds", txid, waitRounds)
		}
		if _, _, err := a.StatusAfterBlock(ctx, current); err != nil {
			return nil, err
		}
		current++
	}
}
