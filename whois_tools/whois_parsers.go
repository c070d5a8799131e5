package whois_tools

import (
	"strings"
	"time"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/KincaidYang/next-whois/utils"
	"github.com/araddon/dateparse"
)

// maxKeyLength bounds where the key/value colon may appear; later colons belong to values.
const maxKeyLength = 40

type field int

const (
	fieldNone field = iota
	fieldDomain
	fieldRegistrar
	fieldRegistrarURL
	fieldIanaID
	fieldWhoisServer
	fieldUpdated
	fieldCreated
	fieldExpires
	fieldStatus
	fieldNameServers
	fieldDNSSec
	fieldRegistrantOrg
	fieldRegistrantCountry
	fieldRegistrantProvince
	fieldRegistrantPhone
	fieldRegistrantEmail
	fieldCIDR
	fieldInetNum
	fieldInet6Num
	fieldNetRange
	fieldNetName
	fieldNetType
	fieldOriginAS
)

// fieldSynonyms maps lower-cased WHOIS keys from the registries and RIRs we have seen to record fields.
var fieldSynonyms = map[string]field{
	"domain name": fieldDomain,
	"domain":      fieldDomain,

	"registrar":                     fieldRegistrar,
	"sponsoring registrar":          fieldRegistrar,
	"registrar-name":                fieldRegistrar,
	"registrar name":                fieldRegistrar,
	"registration service provider": fieldRegistrar,

	"registrar url":     fieldRegistrarURL,
	"referral url":      fieldRegistrarURL,
	"registrar website": fieldRegistrarURL,

	"registrar iana id": fieldIanaID,

	"registrar whois server": fieldWhoisServer,
	"whois server":           fieldWhoisServer,

	"updated date":  fieldUpdated,
	"last updated":  fieldUpdated,
	"last-update":   fieldUpdated,
	"changed":       fieldUpdated,
	"last modified": fieldUpdated,
	"modified date": fieldUpdated,
	"last-modified": fieldUpdated,
	"updated":       fieldUpdated,

	"creation date":                 fieldCreated,
	"created":                       fieldCreated,
	"registered":                    fieldCreated,
	"registered on":                 fieldCreated,
	"registration time":             fieldCreated,
	"created on":                    fieldCreated,
	"domain name commencement date": fieldCreated,
	"regdate":                       fieldCreated,
	"registration date":             fieldCreated,

	"registry expiry date":                   fieldExpires,
	"registrar registration expiration date": fieldExpires,
	"expiration date":                        fieldExpires,
	"expiry date":                            fieldExpires,
	"expires":                                fieldExpires,
	"expires on":                             fieldExpires,
	"expiration time":                        fieldExpires,
	"paid-till":                              fieldExpires,
	"renewal date":                           fieldExpires,
	"valid until":                            fieldExpires,
	"expire date":                            fieldExpires,

	"domain status": fieldStatus,
	"status":        fieldStatus,
	"state":         fieldStatus,

	"name server":                    fieldNameServers,
	"name servers":                   fieldNameServers,
	"nserver":                        fieldNameServers,
	"nameserver":                     fieldNameServers,
	"nameservers":                    fieldNameServers,
	"domain servers in listed order": fieldNameServers,
	"name servers information":       fieldNameServers,
	"domain name servers":            fieldNameServers,

	"dnssec": fieldDNSSec,

	"registrant organization": fieldRegistrantOrg,
	"registrant organisation": fieldRegistrantOrg,
	"org-name":                fieldRegistrantOrg,
	"orgname":                 fieldRegistrantOrg,

	"registrant country": fieldRegistrantCountry,
	"country":            fieldRegistrantCountry,

	"registrant state/province": fieldRegistrantProvince,
	"registrant phone":          fieldRegistrantPhone,
	"registrant email":          fieldRegistrantEmail,

	"cidr":     fieldCIDR,
	"route":    fieldCIDR,
	"route6":   fieldCIDR,
	"inetnum":  fieldInetNum,
	"inet6num": fieldInet6Num,
	"netrange": fieldNetRange,
	"netname":  fieldNetName,
	"as-name":  fieldNetName,
	"asname":   fieldNetName,
	"nettype":  fieldNetType,
	"originas": fieldOriginAS,
	"origin":   fieldOriginAS,
	"aut-num":  fieldOriginAS,
	"asnumber": fieldOriginAS,
}

// phraseFields cover registries that write dates as sentences instead of key/value pairs.
var phraseFields = []struct {
	prefix string
	field  field
}{
	{"record created on", fieldCreated},
	{"record expires on", fieldExpires},
	{"record last updated on", fieldUpdated},
}

// chinaTimeKeys are CNNIC keys whose timestamps carry no zone and are in Beijing time.
var chinaTimeKeys = map[string]bool{
	"registration time": true,
	"expiration time":   true,
}

var chinaStandardTime = time.FixedZone("CST", 8*60*60)

// AnalyzeWhois parses raw WHOIS text into a record. It never fails; unrecognized
// input yields a record with every field at its sentinel.
func AnalyzeWhois(raw string) structs.WhoisResult {
	return AnalyzeWhoisAt(raw, time.Now())
}

// AnalyzeWhoisAt is AnalyzeWhois with the clock used for derived ages fixed to now.
func AnalyzeWhoisAt(raw string, now time.Time) structs.WhoisResult {
	r := structs.NewWhoisResult()
	p := parser{rec: &r}

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		p.line(line)
	}

	r.DomainAge, r.RemainingDays = utils.DerivedAges(r.CreationDate, r.ExpirationDate, now)
	return r
}

type parser struct {
	rec     *structs.WhoisResult
	current field
	key     string
	// header is set after a key with an empty value; its items may follow a blank line.
	header bool
	// last is the scalar written by the current key; continuation lines extend it.
	last *string
}

func (p *parser) line(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		if !p.header {
			p.current = fieldNone
		}
		return
	}
	if isBannerLine(trimmed) {
		p.reset()
		return
	}

	for _, ph := range phraseFields {
		if len(trimmed) > len(ph.prefix) && strings.EqualFold(trimmed[:len(ph.prefix)], ph.prefix) {
			p.assign(ph.field, ph.prefix, strings.Trim(trimmed[len(ph.prefix):], " ."))
			p.reset()
			return
		}
	}

	key, value, ok := splitKeyValue(trimmed)
	if ok {
		f := fieldSynonyms[key]
		if f != fieldNone {
			p.last = nil
			if value == "" {
				p.current, p.key, p.header = f, key, true
				return
			}
			p.assign(f, key, value)
			p.current, p.key, p.header = f, key, false
			return
		}
		// indented "host 2001:db8::1" rows of a name server block are items, not keys
		indented := line != strings.TrimLeft(line, " \t")
		hostRow := indented && p.current == fieldNameServers && strings.Contains(key, ".")
		if !hostRow && !strings.HasPrefix(value, "//") {
			p.reset()
			return
		}
	}

	switch {
	case p.current == fieldNone:
		return
	case p.current == fieldStatus && isBareURL(trimmed) && len(p.rec.Status) > 0:
		p.rec.Status[len(p.rec.Status)-1].URL = trimmed
	case p.last != nil:
		*p.last += " " + trimmed
	default:
		p.assign(p.current, p.key, trimmed)
	}
	p.header = false
}

func (p *parser) reset() {
	p.current, p.key, p.header, p.last = fieldNone, "", false, nil
}

// assign writes value into f. Scalars keep their first non-empty value; sequences append.
func (p *parser) assign(f field, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	r := p.rec
	switch f {
	case fieldStatus:
		r.Status = append(r.Status, parseStatuses(value)...)
	case fieldNameServers:
		if ns := parseNameServer(value); ns != "" {
			r.NameServers = append(r.NameServers, ns)
		}
	case fieldDomain:
		if r.Domain == "" {
			r.Domain = strings.ToLower(strings.TrimSuffix(value, "."))
		}
	case fieldUpdated:
		setOnce(&r.UpdatedDate, normalizeDate(key, value))
	case fieldCreated:
		setOnce(&r.CreationDate, normalizeDate(key, value))
	case fieldExpires:
		setOnce(&r.ExpirationDate, normalizeDate(key, value))
	default:
		if dst := scalarField(r, f); dst != nil && setOnce(dst, value) {
			p.last = dst
		}
	}
}

func scalarField(r *structs.WhoisResult, f field) *string {
	switch f {
	case fieldRegistrar:
		return &r.Registrar
	case fieldRegistrarURL:
		return &r.RegistrarURL
	case fieldIanaID:
		return &r.IanaID
	case fieldWhoisServer:
		return &r.WhoisServer
	case fieldDNSSec:
		return &r.DNSSec
	case fieldRegistrantOrg:
		return &r.RegistrantOrganization
	case fieldRegistrantCountry:
		return &r.RegistrantCountry
	case fieldRegistrantProvince:
		return &r.RegistrantProvince
	case fieldRegistrantPhone:
		return &r.RegistrantPhone
	case fieldRegistrantEmail:
		return &r.RegistrantEmail
	case fieldCIDR:
		return &r.CIDR
	case fieldInetNum:
		return &r.InetNum
	case fieldInet6Num:
		return &r.Inet6Num
	case fieldNetRange:
		return &r.NetRange
	case fieldNetName:
		return &r.NetName
	case fieldNetType:
		return &r.NetType
	case fieldOriginAS:
		return &r.OriginAS
	}
	return nil
}

func setOnce(dst *string, value string) bool {
	if structs.IsUnknown(*dst) && value != "" {
		*dst = value
		return true
	}
	return false
}

func isBareURL(s string) bool {
	lower := strings.ToLower(s)
	return (strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")) && !strings.ContainsAny(s, " \t")
}

// splitKeyValue splits on the first colon when it sits within the first maxKeyLength bytes.
func splitKeyValue(line string) (string, string, bool) {
	i := strings.IndexByte(line, ':')
	if i <= 0 || i > maxKeyLength {
		return "", "", false
	}
	key := strings.ToLower(strings.Join(strings.Fields(line[:i]), " "))
	key = strings.TrimSuffix(strings.TrimPrefix(key, "["), "]")
	return key, strings.TrimSpace(line[i+1:]), true
}

// isBannerLine reports comment and legal-notice lines that carry no record data.
func isBannerLine(line string) bool {
	if strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ">>>") {
		return true
	}
	upper := strings.ToUpper(line)
	return strings.HasPrefix(upper, "TERMS OF USE") || strings.HasPrefix(upper, "NOTICE")
}

// parseStatuses splits "clientHold https://icann.org/epp#clientHold" into token and link.
// A comma list is split only when every item is a known EPP token.
func parseStatuses(value string) []structs.DomainStatus {
	if i := strings.Index(strings.ToLower(value), "http"); i > 0 {
		token := strings.TrimRight(value[:i], " \t(")
		link := strings.Trim(strings.TrimSpace(value[i:]), "()")
		return []structs.DomainStatus{{Status: utils.EppStatusDisplayName(token), URL: link}}
	}

	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		out := make([]structs.DomainStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if _, ok := utils.GetEppStatusInfo(part); !ok {
				out = nil
				break
			}
			out = append(out, structs.DomainStatus{Status: utils.EppStatusDisplayName(part), URL: utils.EppStatusLink(part)})
		}
		if out != nil {
			return out
		}
	}
	return []structs.DomainStatus{{Status: utils.EppStatusDisplayName(value), URL: utils.EppStatusLink(value)}}
}

// parseNameServer keeps the host part of a name server row. Rows that are not host names
// (separators, bare addresses) are dropped.
func parseNameServer(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(fields[0]), ".")
	if !strings.Contains(host, ".") || strings.Trim(host, "-=.") == "" {
		return ""
	}
	return host
}

// normalizeDate renders value as RFC3339, or returns it unchanged when it cannot be parsed.
func normalizeDate(key, value string) string {
	if chinaTimeKeys[key] {
		if t, err := dateparse.ParseIn(value, chinaStandardTime); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	out, _, _ := utils.NormalizeDate(value)
	return out
}
