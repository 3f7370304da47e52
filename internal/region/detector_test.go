package region

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector(lookupURL string, defaultDomestic bool) *Detector {
	return &Detector{
		lookupURL:       lookupURL,
		defaultDomestic: defaultDomestic,
		client:          http.DefaultClient,
		cache:           make(map[string]bool),
	}
}

func requestFrom(remoteAddr string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/region", nil)
	r.RemoteAddr = remoteAddr
	return r
}

func TestOverride(t *testing.T) {
	tests := []struct {
		query        string
		wantDomestic bool
		wantOK       bool
	}{
		{"isChina=true", true, true},
		{"isChina=1", true, true},
		{"isChina=false", false, true},
		{"isChina=0", false, true},
		{"isChina=maybe", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		domestic, ok := Override(r)
		assert.Equal(t, tt.wantOK, ok, tt.query)
		assert.Equal(t, tt.wantDomestic, domestic, tt.query)
	}
}

func TestIsDomestic_OverrideSkipsLookup(t *testing.T) {
	var lookups int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&lookups, 1)
	}))
	defer srv.Close()

	d := newTestDetector(srv.URL+"/%s", false)
	r := httptest.NewRequest(http.MethodGet, "/?isChina=true", nil)
	r.RemoteAddr = "8.8.8.8:1234"

	assert.True(t, d.IsDomestic(context.Background(), r))
	assert.Zero(t, atomic.LoadInt32(&lookups))
}

func TestIsDomestic_LookupAndCache(t *testing.T) {
	var lookups int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&lookups, 1)
		fmt.Fprint(w, `{"countryCode":"CN"}`)
	}))
	defer srv.Close()

	d := newTestDetector(srv.URL+"/%s", false)

	r := requestFrom("8.8.8.8:1234")
	assert.True(t, d.IsDomestic(context.Background(), r))
	assert.True(t, d.IsDomestic(context.Background(), r), "第二次命中缓存")
	assert.Equal(t, int32(1), atomic.LoadInt32(&lookups))
}

func TestIsDomestic_ForeignCountryCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"countryCode":"US"}`)
	}))
	defer srv.Close()

	d := newTestDetector(srv.URL+"/%s", true)
	assert.False(t, d.IsDomestic(context.Background(), requestFrom("8.8.8.8:1234")))
}

func TestIsDomestic_LookupFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newTestDetector(srv.URL+"/%s", true)
	assert.True(t, d.IsDomestic(context.Background(), requestFrom("8.8.8.8:1234")))
}

func TestIsDomestic_LocalAddressSkipsLookup(t *testing.T) {
	var lookups int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&lookups, 1)
		fmt.Fprint(w, `{"countryCode":"US"}`)
	}))
	defer srv.Close()

	d := newTestDetector(srv.URL+"/%s", true)
	for _, addr := range []string{"127.0.0.1:1234", "192.168.1.5:1234", "[::1]:1234"} {
		d.IsDomestic(context.Background(), requestFrom(addr))
	}
	assert.Zero(t, atomic.LoadInt32(&lookups))
}

func TestClientIP(t *testing.T) {
	r := requestFrom("10.0.0.1:5000")
	assert.Equal(t, "10.0.0.1", clientIP(r))

	r.Header.Set("X-Real-IP", "1.2.3.4")
	assert.Equal(t, "1.2.3.4", clientIP(r))

	// X-Forwarded-For 优先，取最左端的原始客户端。
	r.Header.Set("X-Forwarded-For", "5.6.7.8, 10.0.0.1")
	assert.Equal(t, "5.6.7.8", clientIP(r))
}

func TestIsLocalAddress(t *testing.T) {
	require.True(t, isLocalAddress("127.0.0.1"))
	require.True(t, isLocalAddress("192.168.0.1"))
	require.True(t, isLocalAddress("10.1.2.3"))
	require.True(t, isLocalAddress("::1"))
	require.True(t, isLocalAddress("0.0.0.0"))
	require.True(t, isLocalAddress("不是IP"))
	require.False(t, isLocalAddress("8.8.8.8"))
}
