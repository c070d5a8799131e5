package whois_tools

import (
	"regexp"
	"strings"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
)

// EmptyResponseMessage is reported when a server answered with banners only.
const EmptyResponseMessage = "Empty WHOIS response"

// notFoundPatterns signal an unregistered or absent object. Order matters: the first
// pattern with a match decides the reported line.
var notFoundPatterns = compilePatterns(
	`no match`,
	`not found`,
	`no data found`,
	`no entries found`,
	`no object found`,
	`nothing found`,
	`invalid query`,
	`error:`,
	`malformed`,
	`object does not exist`,
	`domain not found`,
	`status:\s*free`,
	`status:\s*available`,
	`is available for`,
	`no whois information`,
	`tld is not supported`,
)

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// DetectWhoisError returns a message when raw says the object does not exist, or "" when
// nothing signals an error. The message is the first matching line as the server wrote it.
func DetectWhoisError(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	substantive := 0
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" && !isBannerLine(t) {
			substantive++
		}
	}
	if substantive == 0 {
		return EmptyResponseMessage
	}

	for _, re := range notFoundPatterns {
		loc := re.FindStringIndex(raw)
		if loc == nil {
			continue
		}
		for _, l := range lines {
			if re.MatchString(l) {
				return strings.TrimSpace(l)
			}
		}
		return raw[loc[0]:loc[1]]
	}
	return ""
}

// IsEmptyResult reports whether a parse found nothing identifying the object.
func IsEmptyResult(r *structs.WhoisResult) bool {
	return strings.TrimSpace(r.Domain) == "" &&
		r.Registrar == structs.Unknown &&
		r.CreationDate == structs.Unknown &&
		r.ExpirationDate == structs.Unknown &&
		len(r.NameServers) == 0
}
