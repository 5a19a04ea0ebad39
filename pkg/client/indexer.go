package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

var defaultIndexerOptions = Options{
	BaseUrl: "http://localhost:8980",
	Client:  &http.Client{Timeout: 3 * time.Second},
}

// Indexer is a client for the block indexer's read-only REST API.
type Indexer struct {
	options Options
}

// NewIndexer creates an indexer client. If no options provided will use
// default.
func NewIndexer(options ...Options) (*Indexer, error) {
	opts, err := merge(defaultIndexerOptions, options)
	if err != nil {
		return nil, err
	}
	return &Indexer{options: opts}, nil
}

func (a *Indexer) GetOptions() Options {
	return a.options
}

func (a *Indexer) newRequest(path string) (*http.Request, error) {
	url, err := joinUrl(a.options.BaseUrl, path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("GET", url.String(), nil)
	if err != nil {
		return nil, err
	}
	if a.options.ApiKey != "" {
		req.Header.Set(IndexerApiKeyHeader, a.options.ApiKey)
	}
	return req, nil
}

type IndexedTransaction struct {
	ID             string `json:"id"`
	TxType         string `json:"tx-type"`
	Sender         string `json:"sender"`
	Fee            uint64 `json:"fee"`
	FirstValid     uint64 `json:"first-valid"`
	LastValid      uint64 `json:"last-valid"`
	ConfirmedRound uint64 `json:"confirmed-round"`
	RoundTime      uint64 `json:"round-time"`
	Note           []byte `json:"note"`
}

type transactionLookup struct {
	Transaction  IndexedTransaction `json:"transaction"`
	CurrentRound uint64             `json:"current-round"`
}

func (a *Indexer) LookupTransaction(ctx context.Context, txid string) (*IndexedTransaction, *Response, error) {
	req, err := a.newRequest(fmt.Sprintf("/v2/transactions/%s", txid))
	if err != nil {
		return nil, nil, err
	}
	out := new(transactionLookup)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return nil, response, err
	}
	return &out.Transaction, response, nil
}

type IndexedAccount struct {
	Address                     string `json:"address"`
	Amount                      uint64 `json:"amount"`
	AmountWithoutPendingRewards uint64 `json:"amount-without-pending-rewards"`
	Status                      string `json:"status"`
	Round                       uint64 `json:"round"`
	AuthAddr                    string `json:"auth-addr"`
}

type accountLookup struct {
	Account      IndexedAccount `json:"account"`
	CurrentRound uint64         `json:"current-round"`
}

func (a *Indexer) LookupAccount(ctx context.Context, address string) (*IndexedAccount, *Response, error) {
	req, err := a.newRequest(fmt.Sprintf("/v2/accounts/%s", address))
	if err != nil {
		return nil, nil, err
	}
	out := new(accountLookup)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return nil, response, err
	}
	return &out.Account, response, nil
}
