package whois_tools

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/KincaidYang/next-whois/utils"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/encoding/charmap"
)

const (
	// DefaultIANAServer is the root WHOIS server asked when no registry server is configured.
	DefaultIANAServer = "whois.iana.org"

	defaultPort       = "43"
	defaultHopTimeout = 10 * time.Second
	maxResponseSize   = 1 << 20
)

// referralKeys name the lines that point at a more specific WHOIS server.
var referralKeys = []string{
	"registrar whois server:",
	"whois server:",
	"referralserver:",
	"whois:",
	"refer:",
}

// WhoisResponse is the concatenated text of every hop that answered.
type WhoisResponse struct {
	Raw      string
	Server   string   // Server is the last hop that answered.
	Servers  []string // Servers lists every hop in query order.
	IANAOnly bool     // IANAOnly is set when the root server gave no referral.
}

// ProxyConfig routes selected TLDs through a SOCKS5 proxy.
type ProxyConfig struct {
	Server   string
	Username string
	Password string
	Suffixes []string
}

// Client queries WHOIS servers over TCP port 43.
type Client struct {
	IANAServer string
	// Servers maps a TLD (without dot) to its registry WHOIS server. Entries may carry a port.
	Servers map[string]string
	// HopTimeout bounds a single connection when the context has no earlier deadline.
	HopTimeout time.Duration
	Proxy      ProxyConfig
}

// NewClient returns a Client using the given server table and proxy settings.
func NewClient(ianaServer string, servers map[string]string, p ProxyConfig) *Client {
	if ianaServer == "" {
		ianaServer = DefaultIANAServer
	}
	return &Client{
		IANAServer: ianaServer,
		Servers:    servers,
		HopTimeout: defaultHopTimeout,
		Proxy:      p,
	}
}

// Lookup resolves query against the registry or RIR WHOIS, following at most maxFollow referrals.
// A referral hop that fails keeps the text collected so far.
func (c *Client) Lookup(ctx context.Context, query string, qt structs.QueryType, maxFollow int) (*WhoisResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, utils.ErrQueryRequired
	}
	tld := ""
	if qt == structs.QueryDomain {
		tld = domainTLD(query)
	}

	server := c.configuredServer(query, tld)
	if server == "" {
		ianaText, err := c.Query(ctx, c.IANAServer, ianaQuery(query, qt, tld), tld)
		if err != nil {
			return nil, err
		}
		server = findReferral(ianaText)
		if server == "" || sameHost(server, c.IANAServer) {
			zap.L().Debug("iana returned no referral", zap.String("query", query))
			return &WhoisResponse{
				Raw:      ianaText,
				Server:   c.IANAServer,
				Servers:  []string{c.IANAServer},
				IANAOnly: true,
			}, nil
		}
	}

	text, err := c.Query(ctx, server, dataQuery(query, qt), tld)
	if err != nil {
		return nil, err
	}
	resp := &WhoisResponse{Raw: text, Server: server, Servers: []string{server}}
	seen := map[string]bool{strings.ToLower(server): true}

	for hop := 0; hop < maxFollow; hop++ {
		next := findReferral(text)
		if next == "" || seen[strings.ToLower(next)] || sameHost(next, c.IANAServer) {
			break
		}
		seen[strings.ToLower(next)] = true

		text, err = c.Query(ctx, next, dataQuery(query, qt), tld)
		if err != nil {
			zap.L().Warn("whois referral failed",
				zap.String("query", query), zap.String("server", next), zap.Error(err))
			break
		}
		resp.Raw += "\n\n" + text
		resp.Server = next
		resp.Servers = append(resp.Servers, next)
	}
	return resp, nil
}

// Query sends one line to server and returns the decoded response.
func (c *Client) Query(ctx context.Context, server, line, tld string) (string, error) {
	addr := serverAddr(server)
	zap.L().Debug("querying whois", zap.String("server", addr), zap.String("query", line))

	dialer, err := c.dialerFor(tld)
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrTransport, err)
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", c.wrapErr(ctx, addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.hopTimeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(line + "\r\n"); err != nil {
		return "", c.wrapErr(ctx, addr, err)
	}
	if err := w.Flush(); err != nil {
		return "", c.wrapErr(ctx, addr, err)
	}

	body, err := io.ReadAll(io.LimitReader(conn, maxResponseSize+1))
	if err != nil {
		return "", c.wrapErr(ctx, addr, err)
	}
	if ctx.Err() != nil {
		return "", c.wrapErr(ctx, addr, ctx.Err())
	}
	if len(body) > maxResponseSize {
		return "", fmt.Errorf("%w: whois %s: response exceeds %d bytes", utils.ErrTransport, addr, maxResponseSize)
	}
	return decode(body), nil
}

// configuredServer checks the table for the full public suffix ("com.cn") before the last label.
func (c *Client) configuredServer(domain, tld string) string {
	if tld == "" || len(c.Servers) == 0 {
		return ""
	}
	if suffix, _ := publicsuffix.PublicSuffix(strings.ToLower(strings.TrimSuffix(domain, "."))); suffix != "" {
		if s := c.Servers[suffix]; s != "" {
			return s
		}
	}
	return c.Servers[tld]
}

func (c *Client) hopTimeout() time.Duration {
	if c.HopTimeout > 0 {
		return c.HopTimeout
	}
	return defaultHopTimeout
}

func (c *Client) dialerFor(tld string) (proxy.ContextDialer, error) {
	direct := &net.Dialer{Timeout: c.hopTimeout()}
	if c.Proxy.Server == "" || !c.proxied(tld) {
		return direct, nil
	}
	var auth *proxy.Auth
	if c.Proxy.Username != "" {
		auth = &proxy.Auth{User: c.Proxy.Username, Password: c.Proxy.Password}
	}
	d, err := proxy.SOCKS5("tcp", c.Proxy.Server, auth, direct)
	if err != nil {
		return nil, err
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("socks5 dialer does not support contexts")
	}
	return cd, nil
}

func (c *Client) proxied(tld string) bool {
	if tld == "" {
		return false
	}
	for _, s := range c.Proxy.Suffixes {
		if strings.EqualFold(strings.TrimPrefix(s, "."), tld) {
			return true
		}
	}
	return false
}

func (c *Client) wrapErr(ctx context.Context, addr string, err error) error {
	var ne net.Error
	if ctx.Err() != nil || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: whois %s: %v", utils.ErrTimeout, addr, err)
	}
	return fmt.Errorf("%w: whois %s: %v", utils.ErrTransport, addr, err)
}

// decode returns body as UTF-8, reading it as Latin-1 when it is not valid UTF-8.
func decode(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "�")
	}
	return string(out)
}

// findReferral returns the first server named by a referral line, or "".
func findReferral(text string) string {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)
		for _, key := range referralKeys {
			if strings.HasPrefix(lower, key) {
				if s := normalizeServer(line[len(key):]); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// normalizeServer strips schemes, paths and trailing dots from a referral value.
// An explicit port is kept.
func normalizeServer(v string) string {
	v = strings.TrimSpace(v)
	for _, scheme := range []string{"whois://", "rwhois://", "https://", "http://"} {
		if len(v) >= len(scheme) && strings.EqualFold(v[:len(scheme)], scheme) {
			v = v[len(scheme):]
			break
		}
	}
	if i := strings.IndexAny(v, "/ \t"); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSuffix(v, ".")
}

func serverAddr(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, defaultPort)
}

func sameHost(a, b string) bool {
	return strings.EqualFold(serverAddr(a), serverAddr(b))
}

func domainTLD(domain string) string {
	d := strings.TrimSuffix(strings.ToLower(domain), ".")
	if i := strings.LastIndex(d, "."); i >= 0 {
		return d[i+1:]
	}
	return d
}

// ianaQuery is what the root server is asked: the TLD for domains, the address or AS for the rest.
func ianaQuery(query string, qt structs.QueryType, tld string) string {
	switch qt {
	case structs.QueryDomain:
		return tld
	case structs.QueryCIDR:
		if i := strings.Index(query, "/"); i > 0 {
			return query[:i]
		}
	case structs.QueryASN:
		return dataQuery(query, qt)
	}
	return query
}

func dataQuery(query string, qt structs.QueryType) string {
	if qt == structs.QueryASN {
		return "AS" + strings.TrimLeft(query, "asAS")
	}
	return query
}
