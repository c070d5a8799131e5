package rdap_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/KincaidYang/next-whois/utils"
	"github.com/openrdap/rdap"
	"github.com/openrdap/rdap/bootstrap"
	"github.com/openrdap/rdap/bootstrap/cache"
	"go.uber.org/zap"
)

const rdapContentType = "application/rdap+json"

// RDAPResponse carries the registry answer and, when the registry pointed at one,
// the registrar's answer.
type RDAPResponse struct {
	Raw            []byte
	Server         string
	Referral       []byte
	ReferralServer string
}

// Client resolves queries against RDAP servers found through the IANA bootstrap registry.
type Client struct {
	rdap *rdap.Client
	// Server, when set, bypasses bootstrap and sends every query to this base URL.
	Server *url.URL
	// FollowReferral enables the single registrar fetch for domain objects.
	FollowReferral bool
}

// NewClient builds a Client with an in-memory bootstrap cache shared by all lookups.
func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	b := &bootstrap.Client{HTTP: httpClient}
	b.Cache = cache.NewMemoryCache()

	return &Client{
		rdap: &rdap.Client{
			HTTP:      httpClient,
			Bootstrap: b,
			UserAgent: userAgent,
		},
		FollowReferral: true,
	}
}

// Lookup fetches the RDAP object for query. Failures wrap ErrNotFound, ErrTimeout,
// ErrUnsupportedRegistry or ErrTransport.
func (c *Client) Lookup(ctx context.Context, query string, qt structs.QueryType) (*RDAPResponse, error) {
	req, err := buildRequest(query, qt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrTransport, err)
	}
	if c.Server != nil {
		req = req.WithServer(c.Server)
	}

	zap.L().Debug("querying rdap", zap.String("query", query), zap.Stringer("type", qt))
	body, server, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &RDAPResponse{Raw: body, Server: server}

	if qt == structs.QueryDomain && c.FollowReferral {
		if ref := registrarLink(body, server); ref != nil {
			refBody, refServer, err := c.do(ctx, rdap.NewRawRequest(ref))
			if err != nil {
				zap.L().Warn("rdap referral failed",
					zap.String("query", query), zap.String("server", ref.String()), zap.Error(err))
			} else {
				out.Referral, out.ReferralServer = refBody, refServer
			}
		}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, req *rdap.Request) ([]byte, string, error) {
	resp, err := c.rdap.Do(req.WithContext(ctx))
	if err != nil {
		return nil, "", classifyError(ctx, err)
	}
	if resp == nil || len(resp.HTTP) == 0 {
		return nil, "", fmt.Errorf("%w: rdap returned no response", utils.ErrTransport)
	}
	last := resp.HTTP[len(resp.HTTP)-1]
	if len(last.Body) == 0 {
		return nil, last.URL, fmt.Errorf("%w: empty rdap body from %s", utils.ErrTransport, last.URL)
	}
	return last.Body, last.URL, nil
}

func buildRequest(query string, qt structs.QueryType) (*rdap.Request, error) {
	switch qt {
	case structs.QueryIPv4, structs.QueryIPv6:
		ip := net.ParseIP(query)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address %q", query)
		}
		return rdap.NewIPRequest(ip), nil
	case structs.QueryCIDR:
		_, ipNet, err := net.ParseCIDR(query)
		if err != nil {
			return nil, err
		}
		return rdap.NewIPNetRequest(ipNet), nil
	case structs.QueryASN:
		n, err := strconv.ParseUint(strings.TrimLeft(query, "asAS"), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid AS number %q", query)
		}
		return rdap.NewAutnumRequest(uint32(n)), nil
	default:
		return &rdap.Request{Type: rdap.DomainRequest, Query: query}, nil
	}
}

func classifyError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: rdap: %v", utils.ErrTimeout, err)
	}
	var ce *rdap.ClientError
	if errors.As(err, &ce) {
		switch ce.Type {
		case rdap.ObjectDoesNotExist:
			return fmt.Errorf("%w: rdap: %s", utils.ErrNotFound, ce.Text)
		case rdap.BootstrapNoMatch, rdap.BootstrapNotSupported:
			return fmt.Errorf("%w: rdap: %s", utils.ErrUnsupportedRegistry, ce.Text)
		}
	}
	return fmt.Errorf("%w: rdap: %v", utils.ErrTransport, err)
}

// registrarLink returns the registrar RDAP URL a registry domain object links to, if any.
func registrarLink(body []byte, self string) *url.URL {
	var obj struct {
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
			Type string `json:"type"`
		} `json:"links"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}
	for _, l := range obj.Links {
		if l.Rel != "related" || !strings.EqualFold(l.Type, rdapContentType) || l.Href == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSuffix(l.Href, "/"), strings.TrimSuffix(self, "/")) {
			continue
		}
		u, err := url.Parse(l.Href)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
			continue
		}
		return u
	}
	return nil
}
