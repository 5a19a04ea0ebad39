package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kmd(t *testing.T, doer Doer) *Kmd {
	client, err := NewKmd(Options{
		BaseUrl: "http://localhost:7833",
		ApiKey:  "kmd-token",
		Client:  doer,
	})
	require.NoError(t, err)
	return client
}

func TestKmd_RequiresApiKey(t *testing.T) {
	client, err := NewKmd(Options{Client: NewMockHttpRequestFromString("", 200)})
	require.NoError(t, err)
	_, _, err = client.ListWallets(context.Background())
	assert.Equal(t, NoApiKeyError, err)
}

func TestKmd_ListWallets(t *testing.T) {
	client := kmd(t, NewMockHttpRequestFromString(`
{
  "wallets": [
    {"id": "b187f2d0", "name": "default", "driver_name": "sqlite"}
  ]
}
`, 200))
	wallets, resp, err := client.ListWallets(context.Background())
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "b187f2d0", wallets[0].ID)
	assert.Equal(t, "default", wallets[0].Name)
	assert.Equal(t, "http://localhost:7833/v1/wallets", resp.Request.URL.String())
	assert.Equal(t, "kmd-token", resp.Request.Header.Get(KmdApiKeyHeader))
}

func TestKmd_InitWalletHandle(t *testing.T) {
	client := kmd(t, NewMockHttpRequestFromString(`{"wallet_handle_token": "handle-1"}`, 200))
	handle, resp, err := client.InitWalletHandle(context.Background(), "b187f2d0", "pw")
	require.NoError(t, err)
	assert.Equal(t, "handle-1", handle)
	assert.Equal(t, "http://localhost:7833/v1/wallet/init", resp.Request.URL.String())

	var sent initWalletHandleRequest
	require.NoError(t, json.NewDecoder(resp.Request.Body).Decode(&sent))
	assert.Equal(t, "b187f2d0", sent.WalletID)
	assert.Equal(t, "pw", sent.WalletPassword)
}

func TestKmd_ReleaseWalletHandle(t *testing.T) {
	client := kmd(t, NewMockHttpRequestFromString(`{}`, 200))
	resp, err := client.ReleaseWalletHandle(context.Background(), "handle-1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7833/v1/wallet/release", resp.Request.URL.String())
}

func TestKmd_ListKeys(t *testing.T) {
	client := kmd(t, NewMockHttpRequestFromString(`
{
  "addresses": ["PNWOET7LLOWMBMLE4KOCELCX6X3D3Q4H2Q4QJASYIEOF7YIPPQBG3YQ5YI"]
}
`, 200))
	addresses, _, err := client.ListKeys(context.Background(), "handle-1")
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, "PNWOET7LLOWMBMLE4KOCELCX6X3D3Q4H2Q4QJASYIEOF7YIPPQBG3YQ5YI", addresses[0])
}

func TestKmd_ExportKey(t *testing.T) {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i)
	}
	client := kmd(t, NewMockHttpRequestFromString(
		`{"private_key": "`+base64.StdEncoding.EncodeToString(raw)+`"}`, 200))
	sk, _, err := client.ExportKey(context.Background(), "handle-1", "pw", "ADDR")
	require.NoError(t, err)
	assert.Equal(t, raw, sk.Bytes())
}

func TestKmd_ExportKeyBadLength(t *testing.T) {
	client := kmd(t, NewMockHttpRequestFromString(`{"private_key": "c2hvcnQ="}`, 200))
	_, _, err := client.ExportKey(context.Background(), "handle-1", "pw", "ADDR")
	require.Error(t, err)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestKmd_SignTransaction(t *testing.T) {
	stx := []byte{0x82, 0xa3, 0x73, 0x69, 0x67}
	client := kmd(t, NewMockHttpRequestFromString(
		`{"signed_transaction": "`+base64.StdEncoding.EncodeToString(stx)+`"}`, 200))
	got, resp, err := client.SignTransaction(context.Background(), "handle-1", "pw", []byte{0x89})
	require.NoError(t, err)
	assert.Equal(t, stx, got)
	assert.Equal(t, "http://localhost:7833/v1/transaction/sign", resp.Request.URL.String())
}
