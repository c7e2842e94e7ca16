package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Credit(t *testing.T) {
	var (
		gotPath   string
		gotAuth   string
		gotKey    string
		gotAmount int64
		gotRef    string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")

		var req creditRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotAmount = req.Amount
		gotRef = req.Reference

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(Config{BaseURL: srv.URL + "/", Token: "secret", Timeout: time.Second})
	require.NoError(t, err)

	ctx := WithReference(context.Background(), "sched-1:1700000000:user 1")
	require.NoError(t, client.Credit(ctx, "user 1", 100))

	require.Equal(t, "/v1/accounts/user%201/credits", gotPath)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "sched-1:1700000000:user 1", gotKey)
	require.Equal(t, int64(100), gotAmount)
	require.Equal(t, "sched-1:1700000000:user 1", gotRef)
}

func TestHTTPClient_NoReferenceOmitsIdempotencyKey(t *testing.T) {
	var hadKey bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadKey = r.Header["Idempotency-Key"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	require.NoError(t, client.Credit(context.Background(), "user-1", 5))
	require.False(t, hadKey)
}

func TestHTTPClient_Failures(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "account frozen", http.StatusConflict)
		}))
		defer srv.Close()

		client, err := NewHTTPClient(Config{BaseURL: srv.URL})
		require.NoError(t, err)

		err = client.Credit(context.Background(), "user-1", 5)
		require.ErrorIs(t, err, ErrCreditFailed)
		require.ErrorContains(t, err, "status 409")
		require.ErrorContains(t, err, "account frozen")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		client, err := NewHTTPClient(Config{BaseURL: srv.URL})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err = client.Credit(ctx, "user-1", 5)
		require.ErrorIs(t, err, ErrCreditFailed)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		client, err := NewHTTPClient(Config{BaseURL: url})
		require.NoError(t, err)

		err = client.Credit(context.Background(), "user-1", 5)
		require.ErrorIs(t, err, ErrCreditFailed)
	})
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.Error(t, Config{}.Validate())
	require.Error(t, Config{BaseURL: "ftp://ledger"}.Validate())
	require.Error(t, Config{BaseURL: "http://ledger", Timeout: -time.Second}.Validate())
}
