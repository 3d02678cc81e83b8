package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewSafeClientTimeout はタイムアウト設定が反映されることをテストする。
func TestNewSafeClientTimeout(t *testing.T) {
	guard := NewSSRFGuard()
	timeout := 5 * time.Second
	client := guard.NewSafeClient(timeout)
	if client.Timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Fatal("expected custom Transport")
	}
}

// TestNewSafeClientBlocksLoopback はループバックで起動したhttptestサーバーへの接続が拒否されることをテストする。
func TestNewSafeClientBlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewSSRFGuard().NewSafeClient(5 * time.Second)

	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

func TestValidateURL(t *testing.T) {
	guard := NewSSRFGuard()

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://data.open-contracting.org/api/collections", false},
		{"http://example.org/publisher", false},
		{"https://example.org:443/", false},
		{"", true},
		{"ftp://example.org/file", true},
		{"javascript:alert(1)", true},
		{"https:///path", true},
		{"http://10.0.0.1/", true},
		{"http://172.16.0.1/", true},
		{"http://192.168.1.100/", true},
		{"http://127.0.0.1/", true},
		{"http://localhost/", true},
		{"http://LOCALHOST/", true},
		{"http://169.254.169.254/latest/meta-data/", true},
		{"http://metadata.google.internal/", true},
		{"http://[::1]/", true},
		{"http://0.0.0.0/", true},
		{"http://100.64.0.1/", true},
		{"https://example.org:8443/", true},
		{"://broken", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := guard.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

// TestValidateURL_CustomPorts は許可ポートを指定した場合の検証をテストする。
func TestValidateURL_CustomPorts(t *testing.T) {
	guard := NewSSRFGuard(443, 8443)

	if err := guard.ValidateURL("https://api.example.org:8443/collections"); err != nil {
		t.Errorf("port 8443 should be allowed: %v", err)
	}
	if err := guard.ValidateURL("http://api.example.org:80/"); err == nil {
		t.Error("port 80 should be rejected when not listed")
	}
}

func TestSafeLink(t *testing.T) {
	guard := NewSSRFGuard()

	if got := guard.SafeLink(" https://example.org/ocds "); got != "https://example.org/ocds" {
		t.Errorf("SafeLink = %q", got)
	}
	for _, raw := range []string{"javascript:alert(1)", "http://127.0.0.1/", ""} {
		if got := guard.SafeLink(raw); got != "" {
			t.Errorf("SafeLink(%q) = %q, want empty", raw, got)
		}
	}
}

func TestURLGuardInterface(t *testing.T) {
	var _ URLGuard = NewSSRFGuard()
}
