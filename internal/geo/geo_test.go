package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsPrivateOrReserved(t *testing.T) {
	testCases := []struct {
		addr string
		want bool
	}{
		{"10.0.0.1", true},
		{"172.16.5.9", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"169.254.0.5", true},
		{"0.0.0.0", true},
		{"::1", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"203.0.113.7", false},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
		{"not-an-ip", false},
		{"", false},
	}
	for _, tc := range testCases {
		if got := IsPrivateOrReserved(tc.addr); got != tc.want {
			t.Errorf("IsPrivateOrReserved(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func TestLocation_SameArea(t *testing.T) {
	us := Location{Country: "United States", Region: "California", City: "San Jose"}
	usOther := Location{Country: "United States", Region: "California", City: "Fresno"}
	de := Location{Country: "Germany", Region: "Berlin", City: "Berlin"}

	if !us.SameArea(usOther) {
		t.Error("same country+region should match regardless of city")
	}
	if us.SameArea(de) {
		t.Error("different countries should not match")
	}
	if us.SameArea(Unknown) {
		t.Error("unknown on one side fails closed")
	}
	if Unknown.SameArea(Unknown) {
		t.Error("unknown on both sides fails closed")
	}
}

func TestHTTPResolver_PrivateSkipsProvider(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second, 100)
	loc, err := r.Resolve(context.Background(), "192.168.0.10")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc != Local {
		t.Errorf("loc = %+v, want Local sentinel", loc)
	}
	if called {
		t.Error("provider should not be called for private ranges")
	}
}

func TestHTTPResolver_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/203.0.113.7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","country":"Germany","regionName":"Berlin","city":"Berlin"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second, 100)
	loc, err := r.Resolve(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := Location{Country: "Germany", Region: "Berlin", City: "Berlin"}
	if loc != want {
		t.Errorf("loc = %+v, want %+v", loc, want)
	}
}

func TestHTTPResolver_ProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second, 100)
	loc, err := r.Resolve(context.Background(), "203.0.113.7")
	if err == nil {
		t.Fatal("expected error from failing provider")
	}
	if loc != Unknown {
		t.Errorf("loc = %+v, want Unknown", loc)
	}
}

func TestHTTPResolver_FailedStatusPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second, 100)
	if loc, err := r.Resolve(context.Background(), "203.0.113.7"); err == nil || loc != Unknown {
		t.Errorf("want Unknown + error for fail payload, got %+v, %v", loc, err)
	}
}

func TestHTTPResolver_InvalidAddress(t *testing.T) {
	r := NewHTTPResolver("http://unused", time.Second, 100)
	if loc, err := r.Resolve(context.Background(), "not-an-ip"); err == nil || loc != Unknown {
		t.Errorf("want Unknown + error for invalid address, got %+v, %v", loc, err)
	}
}

func TestHTTPResolver_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","country":"X","regionName":"Y","city":"Z"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, time.Second, 1)
	// First call consumes the burst; an immediate second call must be limited.
	if _, err := r.Resolve(context.Background(), "203.0.113.7"); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	_, err := r.Resolve(context.Background(), "203.0.113.8")
	if err != ErrRateLimited {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestResolveOrUnknown(t *testing.T) {
	if loc := ResolveOrUnknown(context.Background(), nil, "1.2.3.4"); loc != Unknown {
		t.Errorf("nil resolver should yield Unknown, got %+v", loc)
	}
	s := &StaticResolver{Locations: map[string]Location{"1.2.3.4": {Country: "X"}}}
	if loc := ResolveOrUnknown(context.Background(), s, "1.2.3.4"); loc.Country != "X" {
		t.Errorf("loc = %+v, want country X", loc)
	}
}
