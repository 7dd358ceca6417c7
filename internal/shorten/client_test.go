package shorten_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linkrelay/linkrelay/internal/shorten"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(serverURL string) *shorten.Client {
	return shorten.NewClient(serverURL, nil, shorten.DefaultTimeout, zap.NewNop())
}

func TestClient_Shorten(t *testing.T) {
	t.Run("returns shortened url on success", func(t *testing.T) {
		var gotQuery map[string]string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"api":   r.URL.Query().Get("api"),
				"url":   r.URL.Query().Get("url"),
				"alias": r.URL.Query().Get("alias"),
			}
			_, _ = w.Write([]byte(`{"status":"success","shortenedUrl":"https://lnk.ra/x1"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		shortened, err := client.Shorten(context.Background(), "http://foo.com", "key123", "")

		require.NoError(t, err)
		assert.Equal(t, "https://lnk.ra/x1", shortened)
		assert.Equal(t, "key123", gotQuery["api"])
		assert.Equal(t, "http://foo.com", gotQuery["url"])
		assert.Empty(t, gotQuery["alias"])
	})

	t.Run("passes alias when provided", func(t *testing.T) {
		var gotAlias string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAlias = r.URL.Query().Get("alias")
			_, _ = w.Write([]byte(`{"status":"success","shortenedUrl":"https://lnk.ra/my-alias"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Shorten(context.Background(), "http://foo.com", "key123", "my-alias")

		require.NoError(t, err)
		assert.Equal(t, "my-alias", gotAlias)
	})

	t.Run("normalizes scheme-less urls", func(t *testing.T) {
		var gotURL string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotURL = r.URL.Query().Get("url")
			_, _ = w.Write([]byte(`{"status":"success","shortenedUrl":"https://lnk.ra/x1"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Shorten(context.Background(), "www.foo.com/page", "key123", "")

		require.NoError(t, err)
		assert.Equal(t, "https://www.foo.com/page", gotURL)
	})

	t.Run("application error surfaces cause and message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"error","message":"invalid api key"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Shorten(context.Background(), "http://foo.com", "bad", "")

		var remoteErr *shorten.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, shorten.CauseApplication, remoteErr.Cause)
		assert.Contains(t, remoteErr.Message, "invalid api key")
	})

	t.Run("missing shortened url is malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"success"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Shorten(context.Background(), "http://foo.com", "key123", "")

		var remoteErr *shorten.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, shorten.CauseMalformed, remoteErr.Cause)
	})

	t.Run("invalid json is malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Shorten(context.Background(), "http://foo.com", "key123", "")

		var remoteErr *shorten.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, shorten.CauseMalformed, remoteErr.Cause)
	})

	t.Run("non-2xx status is a transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Shorten(context.Background(), "http://foo.com", "key123", "")

		var remoteErr *shorten.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, shorten.CauseTransport, remoteErr.Cause)
	})

	t.Run("unreachable server is a transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		client := newTestClient(server.URL)

		_, err := client.Shorten(context.Background(), "http://foo.com", "key123", "")

		var remoteErr *shorten.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, shorten.CauseTransport, remoteErr.Cause)
	})

	t.Run("slow server times out", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer server.Close()

		client := shorten.NewClient(server.URL, nil, 20*time.Millisecond, zap.NewNop())

		_, err := client.Shorten(context.Background(), "http://foo.com", "key123", "")

		var remoteErr *shorten.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, shorten.CauseTimeout, remoteErr.Cause)
	})
}

func TestClient_Balance(t *testing.T) {
	t.Run("decodes account summary", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/user/balance", r.URL.Path)
			assert.Equal(t, "key123", r.URL.Query().Get("api"))
			_, _ = w.Write([]byte(`{
				"username": "alice",
				"currency": "USD",
				"today": {"views": 12, "earnings": "0.05"},
				"this_month": {"views": 340, "earnings": "1.72"},
				"balances": {
					"publisher_earnings": "1.72",
					"referral_earnings": "0.10",
					"advertiser_balance": "0.00",
					"wallet_money": "0.00"
				}
			}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		balance, err := client.Balance(context.Background(), "key123")

		require.NoError(t, err)
		assert.Equal(t, "alice", balance.Username)
		assert.Equal(t, "USD", balance.Currency)
		assert.Equal(t, int64(12), balance.Today.Views)
		assert.Equal(t, "1.72", balance.Balances.PublisherEarnings)
	})

	t.Run("missing username is malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Balance(context.Background(), "key123")

		var remoteErr *shorten.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, shorten.CauseMalformed, remoteErr.Cause)
	})
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "http://foo.com", shorten.NormalizeURL("http://foo.com"))
	assert.Equal(t, "https://foo.com", shorten.NormalizeURL("https://foo.com"))
	assert.Equal(t, "ftp://foo.com", shorten.NormalizeURL("ftp://foo.com"))
	assert.Equal(t, "HTTP://FOO.COM", shorten.NormalizeURL("HTTP://FOO.COM"))
	assert.Equal(t, "https://www.foo.com", shorten.NormalizeURL("www.foo.com"))
}

func TestRemoteError(t *testing.T) {
	t.Run("wraps the underlying error", func(t *testing.T) {
		inner := errors.New("boom")
		err := &shorten.RemoteError{Cause: shorten.CauseTransport, Err: inner}

		assert.ErrorIs(t, err, inner)
	})

	t.Run("message appears in error text", func(t *testing.T) {
		err := &shorten.RemoteError{Cause: shorten.CauseApplication, Message: "bad key"}

		assert.Contains(t, err.Error(), "bad key")
		assert.Contains(t, err.Error(), "application")
	})
}
