package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibanmanager/pkg/requestcontext"
)

const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestMiddlewareHandler(t *testing.T) {
	tests := []struct {
		name           string
		headers        map[string]string
		remoteAddr     string
		trustedProxies []string
		expectedIP     string
	}{
		{
			name:       "ignores XFF without trusted proxies",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "192.168.1.1:12345",
			expectedIP: "192.168.1.1",
		},
		{
			name:           "trusts XFF from trusted proxy",
			headers:        map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"},
			remoteAddr:     "10.0.0.1:12345",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "203.0.113.1",
		},
		{
			name:           "trusts X-Real-IP from trusted proxy",
			headers:        map[string]string{"X-Real-IP": "198.51.100.4"},
			remoteAddr:     "10.0.0.1:12345",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "198.51.100.4",
		},
		{
			name:           "trusts XFF from a bare proxy address",
			headers:        map[string]string{"X-Forwarded-For": "203.0.113.9"},
			remoteAddr:     "10.0.0.5:12345",
			trustedProxies: []string{"10.0.0.5"},
			expectedIP:     "203.0.113.9",
		},
		{
			name:           "bare proxy address trusts only that host",
			headers:        map[string]string{"X-Forwarded-For": "203.0.113.9"},
			remoteAddr:     "10.0.0.6:12345",
			trustedProxies: []string{"10.0.0.5"},
			expectedIP:     "10.0.0.6",
		},
		{
			name:           "rejects malformed XFF",
			headers:        map[string]string{"X-Forwarded-For": "not-an-ip"},
			remoteAddr:     "10.0.0.1:12345",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "10.0.0.1",
		},
		{
			name:           "rejects oversized XFF",
			headers:        map[string]string{"X-Forwarded-For": strings.Repeat("1", MaxXFFHeaderLength+1)},
			remoteAddr:     "10.0.0.1:12345",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "10.0.0.1",
		},
		{
			name:       "strips port from IPv6",
			remoteAddr: "[2001:db8::1]:443",
			expectedIP: "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefixes, err := ParseTrustedProxies(tt.trustedProxies)
			require.NoError(t, err)

			var captured context.Context
			handler := NewMiddleware(Config{TrustedProxies: prefixes}).Handler(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					captured = r.Context()
				}))

			req := httptest.NewRequest(http.MethodGet, "/ibans", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expectedIP, requestcontext.ClientIP(captured))
		})
	}
}

func TestDescribeClient(t *testing.T) {
	assert.Empty(t, DescribeClient("  "))

	desc := DescribeClient(chromeUA)
	assert.True(t, strings.HasPrefix(desc, "Chrome 120"), desc)
	assert.Contains(t, desc, " on ")

	assert.LessOrEqual(t, len(DescribeClient(strings.Repeat("x", 500))), maxClientLength)
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.0/8", " ", "192.168.0.0/16"})
	require.NoError(t, err)
	assert.Len(t, prefixes, 2)

	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestParseTrustedProxiesBareAddresses(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.5", "192.168.0.0/16", "2001:db8::1"})
	require.NoError(t, err)
	require.Len(t, prefixes, 3)

	assert.Equal(t, netip.MustParsePrefix("10.0.0.5/32"), prefixes[0])
	assert.Equal(t, netip.MustParsePrefix("2001:db8::1/128"), prefixes[2])
	assert.True(t, prefixes[0].Contains(netip.MustParseAddr("10.0.0.5")))
	assert.False(t, prefixes[0].Contains(netip.MustParseAddr("10.0.0.6")))
}
