package security

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
)

// allowedLinkSchemes は面接リンクとして許可するURLスキーム。
var allowedLinkSchemes = []string{"http", "https"}

// blockedNetworks は面接リンクのホストとして許可しないIPアドレス範囲。
var blockedNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

var blockedHostnames = []string{"localhost"}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		networks = append(networks, network)
	}
	return networks
}

// LinkValidator はオンライン面接のURLを静的に検証する。
// サービスはこのURLへリクエストを送信しないため、DNS解決は行わない。
type LinkValidator struct{}

// NewLinkValidator はLinkValidatorを生成する。
func NewLinkValidator() *LinkValidator {
	return &LinkValidator{}
}

// Validate はURLが http/https の絶対URLで、ループバックやプライベートアドレスを
// 指していないことを検証する。空文字列は「リンクなし」として許可する。
func (v *LinkValidator) Validate(rawURL string) error {
	if rawURL == "" {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !slices.Contains(allowedLinkSchemes, scheme) {
		return fmt.Errorf("disallowed scheme: %q (allowed: %v)", parsed.Scheme, allowedLinkSchemes)
	}

	if parsed.User != nil {
		return fmt.Errorf("credentials in URL are not allowed")
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL")
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, network := range blockedNetworks {
			if network.Contains(ip) {
				return fmt.Errorf("blocked IP address: %s", ip)
			}
		}
		return nil
	}

	lower := strings.ToLower(strings.TrimSuffix(host, "."))
	for _, blocked := range blockedHostnames {
		if lower == blocked || strings.HasSuffix(lower, "."+blocked) {
			return fmt.Errorf("blocked host: %s", host)
		}
	}

	return nil
}
