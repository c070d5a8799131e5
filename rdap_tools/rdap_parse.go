package rdap_tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/KincaidYang/next-whois/utils"
)

// ConvertRDAPToWhoisResult maps an RDAP domain, IP network or autnum object onto a record.
func ConvertRDAPToWhoisResult(raw []byte, query string) (structs.WhoisResult, error) {
	return ConvertRDAPToWhoisResultAt(raw, query, time.Now())
}

// ConvertRDAPToWhoisResultAt is ConvertRDAPToWhoisResult with a fixed clock for derived ages.
func ConvertRDAPToWhoisResultAt(raw []byte, query string, now time.Time) (structs.WhoisResult, error) {
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return structs.WhoisResult{}, fmt.Errorf("decode rdap response: %w", err)
	}

	r := structs.NewWhoisResult()
	switch class := strings.ToLower(str(result, "objectClassName")); class {
	case "domain":
		parseDomain(result, query, &r)
	case "ip network":
		parseIPNetwork(result, &r)
	case "autnum":
		parseAutnum(result, &r)
	default:
		return structs.WhoisResult{}, fmt.Errorf("unsupported rdap object class %q", class)
	}

	parseEvents(result, &r)
	r.DomainAge, r.RemainingDays = utils.DerivedAges(r.CreationDate, r.ExpirationDate, now)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err == nil {
		r.RawRdapContent = pretty.String()
	} else {
		r.RawRdapContent = string(raw)
	}
	return r, nil
}

func parseDomain(result map[string]interface{}, query string, r *structs.WhoisResult) {
	r.Domain = strings.ToLower(strings.TrimSuffix(str(result, "ldhName"), "."))
	if r.Domain == "" {
		r.Domain = strings.ToLower(query)
	}

	for _, s := range arr(result, "status") {
		if token, ok := s.(string); ok && token != "" {
			r.Status = append(r.Status, structs.DomainStatus{
				Status: utils.EppStatusDisplayName(token),
				URL:    utils.EppStatusLink(token),
			})
		}
	}

	for _, ns := range arr(result, "nameservers") {
		if name := strings.TrimSuffix(strings.ToLower(str(obj(ns), "ldhName")), "."); name != "" {
			r.NameServers = append(r.NameServers, name)
		}
	}

	if secureDNS := obj(result["secureDNS"]); secureDNS != nil {
		r.DNSSec = "unsigned"
		if signed, ok := secureDNS["delegationSigned"].(bool); ok && signed {
			r.DNSSec = "signedDelegation"
		}
	}

	if port43 := str(result, "port43"); port43 != "" {
		r.WhoisServer = port43
	}

	if registrar := findEntity(result, "registrar"); registrar != nil {
		card := vcard(registrar)
		setIf(&r.Registrar, card.first("fn"))
		setIf(&r.RegistrarURL, card.first("url"))
		if structs.IsUnknown(r.RegistrarURL) {
			setIf(&r.RegistrarURL, linkHref(registrar, "about"))
		}
		for _, id := range arr(registrar, "publicIds") {
			if v := str(obj(id), "identifier"); v != "" {
				r.IanaID = v
				break
			}
		}
	}
	parseRegistrant(result, r)
}

func parseIPNetwork(result map[string]interface{}, r *structs.WhoisResult) {
	start, end := str(result, "startAddress"), str(result, "endAddress")
	if start != "" && end != "" {
		span := start + " - " + end
		r.NetRange = span
		if strings.EqualFold(str(result, "ipVersion"), "v6") || strings.Contains(start, ":") {
			r.Inet6Num = span
		} else {
			r.InetNum = span
		}
	}
	setIf(&r.NetName, str(result, "name"))
	setIf(&r.NetType, str(result, "type"))
	setIf(&r.RegistrantCountry, str(result, "country"))

	var cidrs []string
	for _, c := range arr(result, "cidr0_cidrs") {
		m := obj(c)
		prefix := str(m, "v4prefix")
		if prefix == "" {
			prefix = str(m, "v6prefix")
		}
		if length, ok := m["length"].(float64); ok && prefix != "" {
			cidrs = append(cidrs, fmt.Sprintf("%s/%d", prefix, int(length)))
		}
	}
	if len(cidrs) > 0 {
		r.CIDR = strings.Join(cidrs, ", ")
	}
	parseRegistrant(result, r)
}

func parseAutnum(result map[string]interface{}, r *structs.WhoisResult) {
	if start, ok := result["startAutnum"].(float64); ok {
		r.OriginAS = "AS" + strconv.FormatUint(uint64(start), 10)
	} else {
		setIf(&r.OriginAS, str(result, "handle"))
	}
	setIf(&r.NetName, str(result, "name"))
	setIf(&r.NetType, str(result, "type"))
	setIf(&r.RegistrantCountry, str(result, "country"))
	parseRegistrant(result, r)
}

func parseRegistrant(result map[string]interface{}, r *structs.WhoisResult) {
	registrant := findEntity(result, "registrant")
	if registrant == nil {
		return
	}
	card := vcard(registrant)
	org := card.first("org")
	if org == "" {
		org = card.first("fn")
	}
	setIf(&r.RegistrantOrganization, org)
	setIf(&r.RegistrantPhone, card.first("tel"))
	setIf(&r.RegistrantEmail, card.first("email"))

	if adr := card.entry("adr"); adr != nil {
		if cc := str(adr.params, "cc"); cc != "" {
			setIf(&r.RegistrantCountry, cc)
		}
		if parts, ok := adr.value.([]interface{}); ok {
			if len(parts) > 4 {
				if region, ok := parts[4].(string); ok {
					setIf(&r.RegistrantProvince, region)
				}
			}
			if len(parts) > 6 {
				if country, ok := parts[6].(string); ok {
					setIf(&r.RegistrantCountry, country)
				}
			}
		}
	}
}

func parseEvents(result map[string]interface{}, r *structs.WhoisResult) {
	for _, e := range arr(result, "events") {
		event := obj(e)
		date := str(event, "eventDate")
		if date == "" {
			continue
		}
		normalized, _, _ := utils.NormalizeDate(date)
		switch strings.ToLower(str(event, "eventAction")) {
		case "registration":
			setIf(&r.CreationDate, normalized)
		case "expiration":
			setIf(&r.ExpirationDate, normalized)
		case "last changed":
			setIf(&r.UpdatedDate, normalized)
		}
	}
}

// findEntity returns the first top-level entity carrying role.
func findEntity(result map[string]interface{}, role string) map[string]interface{} {
	for _, e := range arr(result, "entities") {
		entity := obj(e)
		for _, r := range arr(entity, "roles") {
			if s, ok := r.(string); ok && strings.EqualFold(s, role) {
				return entity
			}
		}
	}
	return nil
}

func linkHref(entity map[string]interface{}, rel string) string {
	for _, l := range arr(entity, "links") {
		link := obj(l)
		if str(link, "rel") == rel {
			return str(link, "href")
		}
	}
	return ""
}

type vcardEntry struct {
	params map[string]interface{}
	value  interface{}
}

type vcardProps map[string][]vcardEntry

// vcard flattens the jCard in vcardArray: ["vcard", [[name, params, type, value], ...]].
func vcard(entity map[string]interface{}) vcardProps {
	props := vcardProps{}
	outer := arr(entity, "vcardArray")
	if len(outer) < 2 {
		return props
	}
	items, ok := outer[1].([]interface{})
	if !ok {
		return props
	}
	for _, it := range items {
		prop, ok := it.([]interface{})
		if !ok || len(prop) < 4 {
			continue
		}
		name, ok := prop[0].(string)
		if !ok {
			continue
		}
		params, _ := prop[1].(map[string]interface{})
		props[strings.ToLower(name)] = append(props[strings.ToLower(name)], vcardEntry{params: params, value: prop[3]})
	}
	return props
}

func (p vcardProps) entry(name string) *vcardEntry {
	if entries := p[name]; len(entries) > 0 {
		return &entries[0]
	}
	return nil
}

// first returns the first non-empty text value of a property, joining structured values.
func (p vcardProps) first(name string) string {
	for _, e := range p[name] {
		switch v := e.value.(type) {
		case string:
			if s := strings.TrimSpace(strings.TrimPrefix(v, "tel:")); s != "" {
				return s
			}
		case []interface{}:
			var parts []string
			for _, x := range v {
				if s, ok := x.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, ", ")
			}
		}
	}
	return ""
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" && structs.IsUnknown(*dst) {
		*dst = v
	}
}

func str(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func arr(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	a, _ := m[key].([]interface{})
	return a
}

func obj(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}
