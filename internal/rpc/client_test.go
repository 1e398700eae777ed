package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		BaseURL:      url,
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
}

func rpcHandler(t *testing.T, responses map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp, ok := responses[req.Method]
		require.True(t, ok, "unexpected method %s", req.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}
}

func TestGetTransaction(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getTransaction": `{
			"result": {
				"slot": 12345,
				"blockTime": 1756600000,
				"transaction": {
					"message": {
						"accountKeys": ["key-a", "key-b"],
						"instructions": [{"programIdIndex": 0, "accounts": [1], "data": "3Bxs4h"}]
					}
				}
			}
		}`,
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	tx, err := client.GetTransaction(context.Background(), "sig")
	require.NoError(t, err)

	assert.Equal(t, int64(12345), tx.Slot)
	require.NotNil(t, tx.BlockTime)
	assert.Equal(t, int64(1756600000), *tx.BlockTime)
	require.Len(t, tx.Transaction.Message.AccountKeys, 2)
	require.Len(t, tx.Transaction.Message.Instructions, 1)
	assert.Equal(t, "3Bxs4h", tx.Transaction.Message.Instructions[0].Data)
}

func TestGetTransactionNotFound(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getTransaction": `{"result": null}`,
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.GetTransaction(context.Background(), "sig-missing")
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getBalance": `{"result": {"value": 2500000000}}`,
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	lamports, err := client.GetBalance(context.Background(), "some-account")
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000_000), lamports)
}

func TestGetTokenAccountBalance(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getTokenAccountBalance": `{"result": {"value": {"amount": "123456789", "decimals": 6}}}`,
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	amount, decimals, err := client.GetTokenAccountBalance(context.Background(), "vault")
	require.NoError(t, err)
	assert.Equal(t, uint64(123_456_789), amount)
	assert.Equal(t, uint8(6), decimals)
}

func TestGetSignaturesForAddress(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"getSignaturesForAddress": `{"result": [
			{"signature": "sig-new", "slot": 2, "err": null},
			{"signature": "sig-old", "slot": 1, "err": {"InstructionError": []}}
		]}`,
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	resp, err := client.GetSignaturesForAddress(context.Background(), "program", map[string]interface{}{"limit": 10})
	require.NoError(t, err)
	require.Len(t, resp.Result, 2)
	assert.Equal(t, "sig-new", resp.Result[0].Signature)
	assert.Nil(t, resp.Result[0].Err)
	assert.NotNil(t, resp.Result[1].Err)
}

func TestCallRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"result": {"value": 7}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	lamports, err := client.GetBalance(context.Background(), "account")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), lamports)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCallExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.GetBalance(context.Background(), "account")
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestCallRPCErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"error": {"code": -32602, "message": "invalid params"}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.GetBalance(context.Background(), "account")
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.Equal(t, int32(1), calls.Load())
}
