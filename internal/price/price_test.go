package price

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const cornToken = "0x1111111111111111111111111111111111111111"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL:           server.URL,
		Symbols:           map[string]string{cornToken: "CORN"},
		Fallback:          map[string]float64{"CORN": 0.25},
		RequestsPerSecond: 1000,
	}, nil)
}

func pairsJSON(pairs ...string) string {
	body := "["
	for i, pair := range pairs {
		if i > 0 {
			body += ","
		}
		body += pair
	}
	return `{"pairs":` + body + `]}`
}

func pair(priceUSD string, liquidityUSD float64) string {
	return fmt.Sprintf(`{"priceUsd":%q,"liquidity":{"usd":%g}}`, priceUSD, liquidityUSD)
}

func TestTokenPricePicksDeepestPair(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pairsJSON(pair("0.10", 5000), pair("0.30", 90000), pair("0.20", 1000)))
	})

	got := client.TokenPriceUSD(context.Background(), cornToken)
	if got != 0.30 {
		t.Fatalf("expected deepest pair price 0.30, got %v", got)
	}
}

func TestTokenPriceTieKeepsFirstPair(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pairsJSON(pair("0.10", 90000), pair("0.30", 90000)))
	})

	got := client.TokenPriceUSD(context.Background(), cornToken)
	if got != 0.10 {
		t.Fatalf("tie must keep first quote, got %v", got)
	}
}

func TestTokenPriceRetriesOnce(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, pairsJSON(pair("0.42", 10000)))
	})

	got := client.TokenPriceUSD(context.Background(), cornToken)
	if got != 0.42 {
		t.Fatalf("retry should recover live price, got %v", got)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 requests, got %d", calls)
	}
}

func TestTokenPriceFallsBackToStaticTable(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	got := client.TokenPriceUSD(context.Background(), cornToken)
	if got != 0.25 {
		t.Fatalf("expected fallback price 0.25, got %v", got)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 attempts before fallback, got %d", calls)
	}
}

func TestTokenPriceRejectsNonPositiveLivePrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pairsJSON(pair("0", 90000)))
	})

	got := client.TokenPriceUSD(context.Background(), cornToken)
	if got != 0.25 {
		t.Fatalf("zero live price must fall back, got %v", got)
	}
}

func TestTokenPriceUnknownTokenIsZero(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[]}`)
	})

	got := client.TokenPriceUSD(context.Background(), "0x9999999999999999999999999999999999999999")
	if got != 0 {
		t.Fatalf("unknown token must price at 0, got %v", got)
	}
}
