package structs

// Unknown is the sentinel for string fields that no source reported.
const Unknown = "Unknown"

// NoScore is the sentinel for authority scores that are unavailable.
const NoScore = -1

// DomainStatus is a single status token together with its reference link.
type DomainStatus struct {
	Status string `json:"status"` // Status is the raw or canonical EPP token.
	URL    string `json:"url"`    // URL points at the token's description.
}

// Price is a pricing hint for registering, renewing or transferring a domain.
type Price struct {
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	IsPremium    bool    `json:"isPremium"`
	ExternalLink string  `json:"externalLink"`
}

// WhoisResult is the normalized registration record produced from RDAP, WHOIS or both.
// String fields hold either a value or Unknown; they are never left empty by the constructors
// except Domain, which stays blank when nothing names the object.
type WhoisResult struct {
	Domain         string         `json:"domain"`
	Registrar      string         `json:"registrar"`
	RegistrarURL   string         `json:"registrarURL"`
	IanaID         string         `json:"ianaId"`
	WhoisServer    string         `json:"whoisServer"`
	UpdatedDate    string         `json:"updatedDate"`
	CreationDate   string         `json:"creationDate"`
	ExpirationDate string         `json:"expirationDate"`
	Status         []DomainStatus `json:"status"`
	NameServers    []string       `json:"nameServers"`
	DNSSec         string         `json:"dnssec"`

	RegistrantOrganization string `json:"registrantOrganization"`
	RegistrantProvince     string `json:"registrantProvince"`
	RegistrantCountry      string `json:"registrantCountry"`
	RegistrantPhone        string `json:"registrantPhone"`
	RegistrantEmail        string `json:"registrantEmail"`

	CIDR     string `json:"cidr"`
	InetNum  string `json:"inetNum"`
	Inet6Num string `json:"inet6Num"`
	NetRange string `json:"netRange"`
	NetName  string `json:"netName"`
	NetType  string `json:"netType"`
	OriginAS string `json:"originAS"`

	DomainAge     *int `json:"domainAge"`     // DomainAge is the age in whole years.
	RemainingDays *int `json:"remainingDays"` // RemainingDays is negative once expired.

	MozDomainAuthority int `json:"mozDomainAuthority"`
	MozPageAuthority   int `json:"mozPageAuthority"`
	MozSpamScore       int `json:"mozSpamScore"`

	RegisterPrice *Price `json:"registerPrice"`
	RenewPrice    *Price `json:"renewPrice"`
	TransferPrice *Price `json:"transferPrice"`

	RawWhoisContent string `json:"rawWhoisContent"`
	RawRdapContent  string `json:"rawRdapContent"`
}

// NewWhoisResult returns a record with every field at its sentinel.
func NewWhoisResult() WhoisResult {
	return WhoisResult{
		Registrar:              Unknown,
		RegistrarURL:           Unknown,
		IanaID:                 Unknown,
		WhoisServer:            Unknown,
		UpdatedDate:            Unknown,
		CreationDate:           Unknown,
		ExpirationDate:         Unknown,
		Status:                 []DomainStatus{},
		NameServers:            []string{},
		DNSSec:                 Unknown,
		RegistrantOrganization: Unknown,
		RegistrantProvince:     Unknown,
		RegistrantCountry:      Unknown,
		RegistrantPhone:        Unknown,
		RegistrantEmail:        Unknown,
		CIDR:                   Unknown,
		InetNum:                Unknown,
		Inet6Num:               Unknown,
		NetRange:               Unknown,
		NetName:                Unknown,
		NetType:                Unknown,
		OriginAS:               Unknown,
		MozDomainAuthority:     NoScore,
		MozPageAuthority:       NoScore,
		MozSpamScore:           NoScore,
	}
}

// IsUnknown reports whether a string field carries no usable value.
func IsUnknown(v string) bool {
	return v == "" || v == Unknown
}

// HasNetworkData reports whether any IP/ASN field was filled.
func (r *WhoisResult) HasNetworkData() bool {
	for _, v := range []string{r.CIDR, r.InetNum, r.Inet6Num, r.NetRange, r.NetName, r.OriginAS} {
		if !IsUnknown(v) {
			return true
		}
	}
	return false
}
