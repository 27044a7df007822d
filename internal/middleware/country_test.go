package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCountryHeaderHintWins(t *testing.T) {
	lookup := func(ip string) (string, error) { return "Germany", nil }
	var got string
	handler := Country(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "BR")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "BR" {
		t.Fatalf("country = %q, want BR", got)
	}
}

func TestCountryLookupFallback(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.7" {
			t.Fatalf("lookup ip = %q", ip)
		}
		return "Japan", nil
	}
	var got string
	handler := Country(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "Japan" {
		t.Fatalf("country = %q, want Japan", got)
	}
}

func TestCountryLookupErrorLeavesContextEmpty(t *testing.T) {
	lookup := func(ip string) (string, error) { return "", errors.New("no database") }
	var got string
	handler := Country(lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != "" {
		t.Fatalf("country = %q, want empty", got)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4711"
	if ip := ClientIP(req); ip != "192.0.2.1" {
		t.Fatalf("ip = %q, want 192.0.2.1", ip)
	}
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	if ip := ClientIP(req); ip != "198.51.100.9" {
		t.Fatalf("ip = %q, want 198.51.100.9", ip)
	}
}
