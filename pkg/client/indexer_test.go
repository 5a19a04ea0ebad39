package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexer(t *testing.T, doer Doer) *Indexer {
	client, err := NewIndexer(Options{
		BaseUrl: "http://localhost:8980",
		ApiKey:  "indexer-token",
		Client:  doer,
	})
	require.NoError(t, err)
	return client
}

func TestIndexer_LookupTransaction(t *testing.T) {
	client := indexer(t, NewMockHttpRequestFromString(`
{
  "current-round": 8500,
  "transaction": {
    "id": "X4FKIAKXLLNMCDZXTIRZ4MMSXVLKHY5ULWPD22OZZWL25AD3Q5DQ",
    "tx-type": "pay",
    "sender": "PNWOET7LLOWMBMLE4KOCELCX6X3D3Q4H2Q4QJASYIEOF7YIPPQBG3YQ5YI",
    "fee": 1000,
    "confirmed-round": 8000
  }
}
`, 200))
	txn, resp, err := client.LookupTransaction(context.Background(), "X4FKIAKXLLNMCDZXTIRZ4MMSXVLKHY5ULWPD22OZZWL25AD3Q5DQ")
	require.NoError(t, err)
	assert.Equal(t, "pay", txn.TxType)
	assert.EqualValues(t, 1000, txn.Fee)
	assert.EqualValues(t, 8000, txn.ConfirmedRound)
	assert.Equal(t,
		"http://localhost:8980/v2/transactions/X4FKIAKXLLNMCDZXTIRZ4MMSXVLKHY5ULWPD22OZZWL25AD3Q5DQ",
		resp.Request.URL.String())
	assert.Equal(t, "indexer-token", resp.Request.Header.Get(IndexerApiKeyHeader))
}

func TestIndexer_LookupAccount(t *testing.T) {
	client := indexer(t, NewMockHttpRequestFromString(`
{
  "current-round": 8500,
  "account": {
    "address": "PNWOET7LLOWMBMLE4KOCELCX6X3D3Q4H2Q4QJASYIEOF7YIPPQBG3YQ5YI",
    "amount": 750000,
    "status": "Online"
  }
}
`, 200))
	acc, _, err := client.LookupAccount(context.Background(), "PNWOET7LLOWMBMLE4KOCELCX6X3D3Q4H2Q4QJASYIEOF7YIPPQBG3YQ5YI")
	require.NoError(t, err)
	assert.EqualValues(t, 750000, acc.Amount)
	assert.Equal(t, "Online", acc.Status)
}

func TestIndexer_NotFound(t *testing.T) {
	client := indexer(t, NewMockHttpRequestFromString(`{"message": "no transaction found"}`, 404))
	_, _, err := client.LookupTransaction(context.Background(), "MISSING")
	require.Error(t, err)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Contains(t, reqErr.Body, "no transaction found")
}
