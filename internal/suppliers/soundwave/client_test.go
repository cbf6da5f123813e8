package soundwave

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundbridge-av/soundbridge/internal/shared"
)

func feedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPageSendsAuthAndPagination(t *testing.T) {
	var gotPage, gotLimit, gotAuth string
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		gotLimit = r.URL.Query().Get("limit")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]any{{
				"id":         101,
				"sku":        "SW-101",
				"name":       "Soundwave One",
				"brand":      "Dali",
				"cost_price": 250.0,
				"stock": []map[string]any{
					{"warehouse": "central", "quantity": 7},
				},
			}},
		})
	})

	rows, err := NewClient(srv.URL, "secret-token").FetchPage(context.Background(), 3, 50)
	require.NoError(t, err)
	require.Equal(t, "3", gotPage)
	require.Equal(t, "50", gotLimit)
	require.Equal(t, "Bearer secret-token", gotAuth)

	require.Len(t, rows, 1)
	require.Equal(t, "101", rows[0].ID)
	require.Equal(t, "SW-101", rows[0].Record.SKU)
	require.Equal(t, map[string]int{"central": 7}, rows[0].Record.Stock)
}

func TestFetchSinceUsesCursor(t *testing.T) {
	var gotSince string
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotSince = r.URL.Query().Get("since_id")
		_ = json.NewEncoder(w).Encode(map[string]any{"products": []map[string]any{}})
	})

	_, err := NewClient(srv.URL, "").FetchSince(context.Background(), "101", 50)
	require.NoError(t, err)
	require.Equal(t, "101", gotSince)
}

func TestRejectedCredentialsAreConnectionError(t *testing.T) {
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := NewClient(srv.URL, "bad").FetchPage(context.Background(), 1, 10)
	var cerr *shared.ConnectionError
	require.ErrorAs(t, err, &cerr)
}

func TestServerErrorIsNotConnectionError(t *testing.T) {
	// A 500 mid-walk falls back to the cursor strategy rather than
	// aborting the session outright.
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := NewClient(srv.URL, "").FetchPage(context.Background(), 2, 10)
	require.Error(t, err)
	var cerr *shared.ConnectionError
	require.False(t, errors.As(err, &cerr))
}
