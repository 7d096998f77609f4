package catalog

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

func TestCurrent_ParsesAndAppliesBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "udl-user", user)
		assert.Equal(t, "udl-pass", pass)
		assert.Contains(t, r.URL.String(), "satNo=25544")
		_ = json.NewEncoder(w).Encode([]Elset{{Line1: "1 ...", Line2: "2 ...", InclinationDeg: 51.6}})
	}))
	defer server.Close()

	c := New(server.URL, "udl-user", "udl-pass")
	elset, err := c.Current(context.Background(), 25544)

	require.NoError(t, err)
	require.NotNil(t, elset)
	assert.Equal(t, 51.6, elset.InclinationDeg)
}

func TestCurrent_CachesWithinTTL(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode([]Elset{{Line1: "1", Line2: "2"}})
	}))
	defer server.Close()

	c := New(server.URL, "u", "p")
	_, err := c.Current(context.Background(), 1)
	require.NoError(t, err)
	_, err = c.Current(context.Background(), 1)
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCurrent_FailureReturnsNilNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "u", "p")
	elset, err := c.Current(context.Background(), 1)

	assert.NoError(t, err)
	assert.Nil(t, elset)
}

func TestCacheEntry_ExpiresAfterTTL(t *testing.T) {
	c := New("http://example.invalid", "u", "p")
	c.store(cacheKey(1, "2026-01-01"), &Elset{Line1: "x"})
	entry := c.cache[cacheKey(1, "2026-01-01")]
	entry.expiresAt = time.Now().Add(-time.Minute)
	c.cache[cacheKey(1, "2026-01-01")] = entry

	_, ok := c.fromCache(cacheKey(1, "2026-01-01"))
	assert.False(t, ok)
}
