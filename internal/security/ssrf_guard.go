// Package security は外部URLの安全性検証と表示用テキストのサニタイズを提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// URLGuard は外部URLへのアクセスと表示をSSRF・XSSの観点から制限する。
// 上流APIのスナップショット取得と、コレクションの公開元リンクの検証に使用する。
type URLGuard interface {
	// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
	// プライベートIP、ループバック、リンクローカル、メタデータIPへの接続は
	// DNS解決後のIPアドレスに対してブロックされる。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL はURLのスキーム、ホスト、ポートを静的に検証する。
	ValidateURL(rawURL string) error

	// SafeLink は表示してよいURLであればそのまま返し、そうでなければ空文字列を返す。
	SafeLink(rawURL string) string
}

// allowedSchemes は許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// defaultPorts はポート指定がない場合に許可されるポート。
var defaultPorts = []int{80, 443}

// blockedNetworks は接続および表示を拒否するネットワーク範囲。
var blockedNetworks = mustParseCIDRs(
	"10.0.0.0/8",     // RFC 1918
	"172.16.0.0/12",  // RFC 1918
	"192.168.0.0/16", // RFC 1918
	"127.0.0.0/8",    // ループバック
	"169.254.0.0/16", // リンクローカル（メタデータIPを含む）
	"0.0.0.0/8",      // カレントネットワーク
	"100.64.0.0/10",  // CGNAT
	"::1/128",        // IPv6ループバック
	"fe80::/10",      // IPv6リンクローカル
	"fc00::/7",       // IPv6ユニークローカル
)

// blockedHostnames はブロック対象のホスト名。
var blockedHostnames = []string{"localhost", "metadata.google.internal"}

func mustParseCIDRs(cidrs ...string) []net.IPNet {
	networks := make([]net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		networks = append(networks, *network)
	}
	return networks
}

// ssrfGuard はURLGuardの実装。
type ssrfGuard struct {
	ports []int
}

// NewSSRFGuard はURLGuardを生成する。
// portsを省略した場合は80と443のみ許可する。
func NewSSRFGuard(ports ...int) *ssrfGuard {
	if len(ports) == 0 {
		ports = defaultPorts
	}
	return &ssrfGuard{ports: slices.Clone(ports)}
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlはnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
// DNS再バインディングにも対応する。
func (g *ssrfGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(g.ports...).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はURLのスキーム、ホスト、ポートを静的に検証する。
// DNS解決は行わない。解決後のIP検証はNewSafeClientのクライアント側で行われる。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !slices.Contains(allowedSchemes, scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if p := parsed.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || !slices.Contains(g.ports, port) {
			return fmt.Errorf("disallowed port: %s", p)
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	if slices.Contains(blockedHostnames, strings.ToLower(host)) {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}

// SafeLink は表示してよいURLであればそのまま返し、そうでなければ空文字列を返す。
func (g *ssrfGuard) SafeLink(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if g.ValidateURL(rawURL) != nil {
		return ""
	}
	return rawURL
}

// isBlockedIP はIPアドレスがブロック対象のネットワーク範囲に含まれるかを検証する。
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
