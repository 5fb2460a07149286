package etherscan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testAddr = "0xab5801a7d398351b8be11c439e05c5b3259aec9b"

func TestFetchTransactionsConcatenatesNativeThenToken(t *testing.T) {
	var gotStart []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("module") != "account" {
			t.Errorf("module = %q", q.Get("module"))
		}
		if q.Get("sort") != "desc" || q.Get("endblock") != "99999999" {
			t.Errorf("unexpected range params: %v", q)
		}
		if q.Get("apikey") != "test-key" {
			t.Errorf("apikey = %q", q.Get("apikey"))
		}
		gotStart = append(gotStart, q.Get("startblock"))

		switch q.Get("action") {
		case "txlist":
			fmt.Fprint(w, `{"status":"1","message":"OK","result":[
				{"blockNumber":"200","hash":"0xaaa","from":"0x1","to":"`+testAddr+`","value":"20000000000000000000"}
			]}`)
		case "tokentx":
			fmt.Fprint(w, `{"status":"1","message":"OK","result":[
				{"blockNumber":"199","hash":"0xbbb","from":"0x2","to":"`+testAddr+`","value":"25000000",
				 "contractAddress":"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48","tokenSymbol":"USDC","tokenDecimal":"6"}
			]}`)
		default:
			t.Errorf("unexpected action %q", q.Get("action"))
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key", 5*time.Second)
	txs, err := c.FetchTransactions(context.Background(), testAddr, 150)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(txs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(txs))
	}
	if txs[0].IsToken() || txs[0].Hash != "0xaaa" {
		t.Fatalf("native record should come first: %+v", txs[0])
	}
	if !txs[1].IsToken() || txs[1].TokenSymbol != "USDC" {
		t.Fatalf("token record should come second: %+v", txs[1])
	}
	if b, err := txs[0].Block(); err != nil || b != 200 {
		t.Fatalf("block = %d/%v", b, err)
	}

	for _, s := range gotStart {
		if s != "150" {
			t.Fatalf("startblock = %q, want 150 for both calls", s)
		}
	}
}

func TestFetchTransactionsEmptyResult(t *testing.T) {
	bodies := []string{
		`{"status":"0","message":"No transactions found","result":[]}`,
		`{"status":"1","message":"OK","result":null}`,
		`{"status":"1","message":"OK"}`,
	}
	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		}))
		c := NewClient(server.URL, "k", time.Second)
		txs, err := c.FetchTransactions(context.Background(), testAddr, 0)
		server.Close()
		if err != nil {
			t.Fatalf("body %s: unexpected error %v", body, err)
		}
		if len(txs) != 0 {
			t.Fatalf("body %s: expected empty, got %d", body, len(txs))
		}
	}
}

func TestFetchTransactionsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	_, err := c.FetchTransactions(context.Background(), testAddr, 0)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Max rate limit reached" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestFetchTransactionsMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>gateway error</html>`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	if _, err := c.FetchTransactions(context.Background(), testAddr, 0); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetchTransactionsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	_, err := c.FetchTransactions(context.Background(), testAddr, 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError on http 502, got %v", err)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("module") != "proxy" || q.Get("action") != "eth_blockNumber" {
			t.Errorf("unexpected ping params: %v", q)
		}
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":83,"result":"0x134e82a"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", time.Second)
	block, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if block != "0x134e82a" {
		t.Fatalf("block = %q", block)
	}
}
