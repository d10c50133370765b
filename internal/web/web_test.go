package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestListenPort(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "8080"},
		{":9753", "9753"},
		{"0.0.0.0:9000", "9000"},
		{"127.0.0.1:8081", "8081"},
		{"", "8080"},
		{":", "8080"},
	}
	for _, tt := range tests {
		if got := listenPort(tt.addr); got != tt.want {
			t.Errorf("listenPort(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestNewProxiesToServerAddr(t *testing.T) {
	t.Setenv("WEB_USERNAME", "ops")
	t.Setenv("WEB_PASSWORD", "secret")

	var gotPath string
	var gotBody map[string]any
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"job_id":"abc"}`))
	}))
	defer api.Close()

	u, err := url.Parse(api.URL)
	if err != nil {
		t.Fatalf("parse api url: %v", err)
	}

	// The dashboard must target the same address the API listens on.
	dash := New(":" + u.Port())
	mux := http.NewServeMux()
	dash.RegisterRoutes(mux)

	form := url.Values{"file_path": {"/data/doc.pdf"}}
	req := httptest.NewRequest(http.MethodPost, "/web/extract", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "auth", Value: "1"})
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotPath != "/extract" {
		t.Errorf("proxied path = %q, want /extract", gotPath)
	}
	if gotBody["file_path"] != "/data/doc.pdf" {
		t.Errorf("forwarded body = %v", gotBody)
	}
	if !strings.Contains(rec.Body.String(), "abc") {
		t.Errorf("response not forwarded: %s", rec.Body.String())
	}
}
