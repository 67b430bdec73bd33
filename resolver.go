package vultrdns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultIPCheckURLs returns the IP echo services queried when the
// configuration does not name its own.
func DefaultIPCheckURLs() []string {
	return []string{
		"https://api.ipify.org",
		"https://ifconfig.me/ip",
		"https://icanhazip.com",
	}
}

const defaultDetectTimeout = 10 * time.Second

// Resolver determines the public IPv4 address that DNS records should point
// at.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context) (string, error) { return f(ctx) }

// WebResolver constructs a resolver which asks external web services for the
// caller's public IPv4 address.
//
// Each serviceURL must speak http and return a bare IPv4 address as its
// response body. The URLs are tried in order with a single attempt each; the
// first response whose trimmed body is a well-formed IPv4 address wins and no
// further services are contacted. The list itself is the fallback mechanism:
// there is no per-URL retry. When every service fails, the returned error is
// a *DetectionError listing each failure in order.
//
// With no arguments the resolver uses DefaultIPCheckURLs.
func WebResolver(serviceURL ...string) Resolver {
	urls := serviceURL
	if len(urls) == 0 {
		urls = DefaultIPCheckURLs()
	}
	return &webResolver{
		serviceURLs: urls,
		timeout:     defaultDetectTimeout,
		logger:      zap.NewNop(),
	}
}

type webResolver struct {
	httpClient  *http.Client
	serviceURLs []string
	timeout     time.Duration
	logger      *zap.Logger
}

// SetLogger replaces the resolver's logger. The default discards everything.
func (wr *webResolver) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	wr.logger = logger
}

// SetHTTPClient replaces the HTTP client used for lookups.
func (wr *webResolver) SetHTTPClient(httpclient *http.Client) {
	wr.httpClient = httpclient
}

// Resolve implements Resolver.
func (wr *webResolver) Resolve(ctx context.Context) (string, error) {
	if len(wr.serviceURLs) == 0 {
		return "", errors.New("no external IP lookup services were provided")
	}

	var failures []string
	for _, u := range wr.serviceURLs {
		ip, err := wr.lookup(ctx, u)
		if err != nil {
			wr.logger.Debug("ip lookup failed", zap.String("url", u), zap.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %s", u, err))
			continue
		}
		wr.logger.Debug("ip lookup succeeded", zap.String("url", u), zap.String("ip", ip))
		return ip, nil
	}
	return "", &DetectionError{Failures: failures}
}

func (wr *webResolver) lookup(ctx context.Context, serviceURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, wr.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := wr.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http request returned %s", resp.Status)
	}

	// an IP echo response is a few bytes; anything past this is garbage
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	ip := strings.TrimSpace(string(body))
	if !IsValidIPv4(ip) {
		return "", fmt.Errorf("invalid IP in response body: %q", ip)
	}
	return ip, nil
}

// FromString constructs a resolver that returns addr verbatim after
// validating it. Useful for --ip style overrides.
func FromString(addr string) Resolver {
	return ResolverFunc(func(context.Context) (string, error) {
		if !IsValidIPv4(addr) {
			return "", fmt.Errorf("unable to parse IP %q: not a valid IPv4 address", addr)
		}
		return addr, nil
	})
}

// InterfaceResolver constructs a resolver that returns the first global
// unicast IPv4 address reported by the named interfaces. If no interfaces
// are named then all interfaces are considered. Loopback, link-local, and
// private addresses are skipped, so this is only useful on hosts that carry
// their public address directly.
func InterfaceResolver(iface ...string) Resolver {
	return interfaceResolver{ifaces: iface}
}

type interfaceResolver struct {
	ifaces []string
}

func (r interfaceResolver) Resolve(context.Context) (string, error) {
	var addrs []net.Addr
	if len(r.ifaces) == 0 {
		var err error
		addrs, err = net.InterfaceAddrs()
		if err != nil {
			return "", fmt.Errorf("error getting interface addresses: %w", err)
		}
	} else {
		for _, name := range r.ifaces {
			ifi, err := net.InterfaceByName(name)
			if err != nil {
				return "", fmt.Errorf("error getting interface %s by name: %w", name, err)
			}
			a, err := ifi.Addrs()
			if err != nil {
				return "", fmt.Errorf("error looking up addresses for interface %s: %w", name, err)
			}
			addrs = append(addrs, a...)
		}
	}

	// addr: ip+net:192.168.86.253/24
	// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
	for _, addr := range addrs {
		prefix, err := netip.ParsePrefix(addr.String())
		if err != nil {
			continue
		}
		ip := prefix.Addr()
		if !ip.Is4() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsPrivate() {
			continue
		}
		return ip.String(), nil
	}
	return "", errors.New("no global unicast IPv4 address found on local interfaces")
}

// IsValidIPv4 reports whether s is a dotted-quad IPv4 address: exactly four
// dot-separated integers, each in [0,255].
func IsValidIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}
