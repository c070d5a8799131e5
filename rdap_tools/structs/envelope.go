package structs

// Lookup sources reported in an envelope.
const (
	SourceRDAP  = "rdap"
	SourceWhois = "whois"
)

// LookupEnvelope wraps a lookup result with resolution metadata.
type LookupEnvelope struct {
	Time            float64      `json:"time"`             // Time is the elapsed wall-clock time in seconds.
	Status          bool         `json:"status"`           // Status reports whether the lookup succeeded.
	Cached          bool         `json:"cached"`           // Cached is true when the envelope was served from cache.
	Source          string       `json:"source,omitempty"` // Source is "rdap" or "whois", empty on failure.
	Result          *WhoisResult `json:"result,omitempty"`
	Error           string       `json:"error,omitempty"`
	RawWhoisContent string       `json:"rawWhoisContent,omitempty"`
	RawRdapContent  string       `json:"rawRdapContent,omitempty"`
}
