package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/algonaut/goalgo/pkg/crypto"
)

var defaultKmdOptions = Options{
	BaseUrl: "http://localhost:7833",
	Client:  &http.Client{Timeout: 3 * time.Second},
}

// Kmd is a client for the key management daemon's REST API. Every
// operation requires the daemon's API token.
type Kmd struct {
	options Options
}

// NewKmd creates a key management client. If no options provided will
// use default.
func NewKmd(options ...Options) (*Kmd, error) {
	opts, err := merge(defaultKmdOptions, options)
	if err != nil {
		return nil, err
	}
	return &Kmd{options: opts}, nil
}

func (a *Kmd) GetOptions() Options {
	return a.options
}

func (a *Kmd) newRequest(method, path string, body any) (*http.Request, error) {
	if a.options.ApiKey == "" {
		return nil, NoApiKeyError
	}
	url, err := joinUrl(a.options.BaseUrl, path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, url.String(), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set(KmdApiKeyHeader, a.options.ApiKey)
	return req, nil
}

type Wallet struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	DriverName            string   `json:"driver_name"`
	SupportsMnemonicUX    bool     `json:"mnemonic_ux"`
	SupportedTransactions []string `json:"supported_txs"`
}

type listWalletsResponse struct {
	Wallets []Wallet `json:"wallets"`
}

func (a *Kmd) ListWallets(ctx context.Context) ([]Wallet, *Response, error) {
	req, err := a.newRequest("GET", "/v1/wallets", nil)
	if err != nil {
		return nil, nil, err
	}
	out := new(listWalletsResponse)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return nil, response, err
	}
	return out.Wallets, response, nil
}

type initWalletHandleRequest struct {
	WalletID       string `json:"wallet_id"`
	WalletPassword string `json:"wallet_password"`
}

type initWalletHandleResponse struct {
	WalletHandleToken string `json:"wallet_handle_token"`
}

// InitWalletHandle unlocks a wallet and returns the handle token the
// other operations consume.
func (a *Kmd) InitWalletHandle(ctx context.Context, walletID, password string) (string, *Response, error) {
	req, err := a.newRequest("POST", "/v1/wallet/init", initWalletHandleRequest{
		WalletID:       walletID,
		WalletPassword: password,
	})
	if err != nil {
		return "", nil, err
	}
	out := new(initWalletHandleResponse)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return "", response, err
	}
	return out.WalletHandleToken, response, nil
}

type walletHandleRequest struct {
	WalletHandleToken string `json:"wallet_handle_token"`
}

func (a *Kmd) ReleaseWalletHandle(ctx context.Context, handle string) (*Response, error) {
	req, err := a.newRequest("POST", "/v1/wallet/release", walletHandleRequest{WalletHandleToken: handle})
	if err != nil {
		return nil, err
	}
	return doHttp(ctx, a.options, req, nil)
}

type listKeysResponse struct {
	Addresses []string `json:"addresses"`
}

func (a *Kmd) ListKeys(ctx context.Context, handle string) ([]string, *Response, error) {
	req, err := a.newRequest("POST", "/v1/key/list", walletHandleRequest{WalletHandleToken: handle})
	if err != nil {
		return nil, nil, err
	}
	out := new(listKeysResponse)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return nil, response, err
	}
	return out.Addresses, response, nil
}

type exportKeyRequest struct {
	WalletHandleToken string `json:"wallet_handle_token"`
	Address           string `json:"address"`
	WalletPassword    string `json:"wallet_password"`
}

type exportKeyResponse struct {
	PrivateKey []byte `json:"private_key"`
}

func (a *Kmd) ExportKey(ctx context.Context, handle, password, address string) (crypto.SecretKey, *Response, error) {
	req, err := a.newRequest("POST", "/v1/key/export", exportKeyRequest{
		WalletHandleToken: handle,
		Address:           address,
		WalletPassword:    password,
	})
	if err != nil {
		return crypto.SecretKey{}, nil, err
	}
	out := new(exportKeyResponse)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return crypto.SecretKey{}, response, err
	}
	sk, err := crypto.NewSecretKeyFromBytes(out.PrivateKey)
	if err != nil {
		return crypto.SecretKey{}, response, newParseError(err)
	}
	return sk, response, nil
}

type signTransactionRequest struct {
	WalletHandleToken string `json:"wallet_handle_token"`
	WalletPassword    string `json:"wallet_password"`
	Transaction       []byte `json:"transaction"`
}

type signTransactionResponse struct {
	SignedTransaction string `json:"signed_transaction"`
}

// SignTransaction asks the daemon to sign canonical transaction bytes
// with the wallet's key for the sender and returns the signed record.
func (a *Kmd) SignTransaction(ctx context.Context, handle, password string, txn []byte) ([]byte, *Response, error) {
	req, err := a.newRequest("POST", "/v1/transaction/sign", signTransactionRequest{
		WalletHandleToken: handle,
		WalletPassword:    password,
		Transaction:       txn,
	})
	if err != nil {
		return nil, nil, err
	}
	out := new(signTransactionResponse)
	response, err := doHttp(ctx, a.options, req, out)
	if err != nil {
		return nil, response, err
	}
	stx, err := base64.StdEncoding.DecodeString(out.SignedTransaction)
	if err != nil {
		return nil, response, newParseError(err)
	}
	return stx, response, nil
}
