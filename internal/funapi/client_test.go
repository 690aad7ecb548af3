package funapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, Options{Key: "k"}, zerolog.Nop())
}

func TestClient_JokeDecodesEnvelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/joke" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("apikey") != "k" {
			t.Errorf("apikey not forwarded: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"status":true,"result":"why did the gopher cross the road"}`))
	}))

	got, err := c.Joke(context.Background())
	if err != nil {
		t.Fatalf("Joke: %v", err)
	}
	if got != "why did the gopher cross the road" {
		t.Fatalf("Joke = %q", got)
	}
}

func TestClient_FailoverToSecondPath(t *testing.T) {
	calls := []string{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if r.URL.Path == "/api/joke" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":"backup joke"}`))
	}))

	got, err := c.Joke(context.Background())
	if err != nil {
		t.Fatalf("Joke: %v", err)
	}
	if got != "backup joke" {
		t.Fatalf("Joke = %q", got)
	}
	if len(calls) != 2 || calls[1] != "/api/fun/joke" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestClient_AllEndpointsFailing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.Joke(context.Background())
	if !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("err = %v, want ErrNoEndpoints", err)
	}
}

func TestClient_StatusFalseStopsFailover(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status":false,"message":"invalid apikey"}`))
	}))

	_, err := c.Joke(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Message != "invalid apikey" {
		t.Fatalf("message = %q", apiErr.Message)
	}
	// An explicit rejection means the key is bad everywhere; no retry.
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestClient_BareStringPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"plain string body"`))
	}))

	got, err := c.Quote(context.Background())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if got != "plain string body" {
		t.Fatalf("Quote = %q", got)
	}
}

func TestClient_MemeExtractsURL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"result":{"url":"https://cdn.example/meme.jpg"}}`))
	}))

	got, err := c.Meme(context.Background())
	if err != nil {
		t.Fatalf("Meme: %v", err)
	}
	if got != "https://cdn.example/meme.jpg" {
		t.Fatalf("Meme = %q", got)
	}
}

func TestClient_StalkNormalizesUsername(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("username"); got != "gopher" {
			t.Errorf("username = %q, want gopher", got)
		}
		w.Write([]byte(`{"status":true,"result":{"full_name":"Go Pher","follower":9001}}`))
	}))

	res, err := c.StalkInstagram(context.Background(), " @gopher ")
	if err != nil {
		t.Fatalf("StalkInstagram: %v", err)
	}
	if res.FullName != "Go Pher" || res.Follower != 9001 {
		t.Fatalf("result = %+v", res)
	}
	if res.Username != "gopher" {
		t.Fatalf("username backfill = %q", res.Username)
	}
}

func TestClient_EmptyUsernameRejectedLocally(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	if _, err := c.StalkTikTok(context.Background(), "  @ "); err == nil {
		t.Fatalf("expected local validation error")
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := New("", Options{}, zerolog.Nop())

	if _, err := c.Joke(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
