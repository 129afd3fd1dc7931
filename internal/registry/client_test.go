package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/askelio/docpipeline/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeRegistrationID(t *testing.T) {
	cases := []struct {
		raw     string
		want    string
		wantOK  bool
	}{
		{"12345678", "12345678", true},
		{"  007  ", "7", true},
		{"00000000", "0", true},
		{"", "", false},
		{"12a45678", "", false},
		{"123456789", "", false},
	}
	for _, c := range cases {
		got, ok := normalizeRegistrationID(c.raw)
		assert.Equal(t, c.wantOK, ok, c.raw)
		if c.wantOK {
			assert.Equal(t, c.want, got, c.raw)
		}
	}
}

func TestClient_Lookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ico":"12345678","obchodniJmeno":"Acme s.r.o.","dic":"CZ12345678","sidlo":{"textovaAdresa":"Prague 1"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	record, err := c.Lookup(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, "Acme s.r.o.", record.Name)
	assert.Equal(t, "CZ12345678", record.TaxID)
	assert.Equal(t, "Prague 1", record.Address)
	assert.True(t, record.Active)
}

func TestClient_Lookup_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, err := c.Lookup(context.Background(), "12345678")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClient_Lookup_InvalidIDNeverCallsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, err := c.Lookup(context.Background(), "not-a-number")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, called)
}

func TestClient_Lookup_CachesPositiveResult(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ico":"12345678","obchodniJmeno":"Acme s.r.o."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, err := c.Lookup(context.Background(), "12345678")
	require.NoError(t, err)
	_, err = c.Lookup(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second lookup should be served from cache")
}

func TestClient_Lookup_CachesNegativeResult(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, _ = c.Lookup(context.Background(), "12345678")
	_, _ = c.Lookup(context.Background(), "12345678")
	assert.Equal(t, 1, calls, "second lookup should be served from the negative cache")
}
