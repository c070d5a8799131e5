package lookup_tools

import (
	"regexp"
	"strings"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

var (
	asnPattern  = regexp.MustCompile(`(?i)^AS\d+$`)
	cidrPattern = regexp.MustCompile(`^.+/\d+$`)
	ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

// ClassifyQuery decides which kind of registry object a query names.
// Anything that is not an AS number, prefix or address is treated as a domain.
func ClassifyQuery(query string) structs.QueryType {
	q := strings.TrimSpace(query)
	switch {
	case asnPattern.MatchString(q):
		return structs.QueryASN
	case strings.Contains(q, "/") && cidrPattern.MatchString(q):
		return structs.QueryCIDR
	case strings.Contains(q, ":"):
		return structs.QueryIPv6
	case ipv4Pattern.MatchString(q):
		return structs.QueryIPv4
	default:
		return structs.QueryDomain
	}
}

// DispatchQuery is the form of query sent to RDAP and WHOIS servers. Domains are
// lower-cased, converted to punycode and cut to their registrable name; AS numbers
// are upper-cased. The cache key never uses this form.
func DispatchQuery(query string, qt structs.QueryType) string {
	q := strings.TrimSpace(query)
	switch qt {
	case structs.QueryASN:
		return strings.ToUpper(q)
	case structs.QueryDomain:
		d := strings.TrimSuffix(strings.ToLower(q), ".")
		if ascii, err := idna.Lookup.ToASCII(d); err == nil && ascii != "" {
			d = ascii
		}
		if apex, err := publicsuffix.EffectiveTLDPlusOne(d); err == nil {
			d = apex
		}
		return d
	default:
		return q
	}
}
