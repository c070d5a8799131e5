package whois_tools

import (
	"strings"
	"testing"
	"time"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseNow = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

const verisignGoogle = `   Domain Name: GOOGLE.COM
   Registry Domain ID: 2138514_DOMAIN_COM-VRSN
   Registrar WHOIS Server: whois.markmonitor.com
   Registrar URL: http://www.markmonitor.com
   Updated Date: 2019-09-09T15:39:04Z
   Creation Date: 1997-09-15T04:00:00Z
   Registry Expiry Date: 2028-09-14T04:00:00Z
   Registrar: MarkMonitor Inc.
   Registrar IANA ID: 292
   Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
   Domain Status: serverHold
   Name Server: NS1.GOOGLE.COM
   Name Server: NS2.GOOGLE.COM
   DNSSEC: unsigned
   URL of the ICANN Whois Inaccuracy Complaint Form: https://www.icann.org/wicf/
>>> Last update of whois database: 2025-10-15T00:00:00Z <<<

NOTICE: The expiration date displayed in this record is the date the
registrar's sponsorship of the domain name registration in the registry is
currently set to expire.

TERMS OF USE: You are not authorized to access or query our Whois
database through the use of electronic processes that are high-volume.`

const markmonitorGoogle = `Domain Name: google.com
Registrar WHOIS Server: whois.markmonitor.com
Registrar URL: http://www.markmonitor.com
Registrar: MarkMonitor, Inc.
Registrar Registration Expiration Date: 2028-09-13T07:00:00+0000
Domain Status: clientUpdateProhibited (https://www.icann.org/epp#clientUpdateProhibited)
Registrant Organization: Google LLC
Registrant State/Province: CA
Registrant Country: US
Registrant Email: Select Request Email Form at https://domains.markmonitor.com/whois/google.com
Name Server: ns1.google.com.
Name Server: ns2.google.com.`

func TestAnalyzeWhoisVerisign(t *testing.T) {
	r := AnalyzeWhoisAt(verisignGoogle, parseNow)

	assert.Equal(t, "google.com", r.Domain)
	assert.Equal(t, "MarkMonitor Inc.", r.Registrar)
	assert.Equal(t, "http://www.markmonitor.com", r.RegistrarURL)
	assert.Equal(t, "292", r.IanaID)
	assert.Equal(t, "whois.markmonitor.com", r.WhoisServer)
	assert.Equal(t, "2019-09-09T15:39:04Z", r.UpdatedDate)
	assert.Equal(t, "1997-09-15T04:00:00Z", r.CreationDate)
	assert.Equal(t, "2028-09-14T04:00:00Z", r.ExpirationDate)
	assert.Equal(t, "unsigned", r.DNSSec)
	assert.Equal(t, []string{"ns1.google.com", "ns2.google.com"}, r.NameServers)
	assert.Equal(t, []structs.DomainStatus{
		{Status: "clientDeleteProhibited", URL: "https://icann.org/epp#clientDeleteProhibited"},
		{Status: "serverHold", URL: "https://icann.org/epp#serverHold"},
	}, r.Status)

	require.NotNil(t, r.DomainAge)
	assert.Equal(t, 28, *r.DomainAge)
	require.NotNil(t, r.RemainingDays)
	assert.Greater(t, *r.RemainingDays, 1000)
}

func TestAnalyzeWhoisConcatenatedHops(t *testing.T) {
	r := AnalyzeWhoisAt(verisignGoogle+"\n\n"+markmonitorGoogle, parseNow)

	// registry hop comes first, so its scalars win
	assert.Equal(t, "MarkMonitor Inc.", r.Registrar)
	assert.Equal(t, "2028-09-14T04:00:00Z", r.ExpirationDate)
	// registrant data only exists in the registrar hop
	assert.Equal(t, "Google LLC", r.RegistrantOrganization)
	assert.Equal(t, "CA", r.RegistrantProvince)
	assert.Equal(t, "US", r.RegistrantCountry)
	// sequences accumulate in source order, duplicates included
	assert.Equal(t, []string{"ns1.google.com", "ns2.google.com", "ns1.google.com", "ns2.google.com"}, r.NameServers)
	require.Len(t, r.Status, 3)
	assert.Equal(t, structs.DomainStatus{
		Status: "clientUpdateProhibited",
		URL:    "https://www.icann.org/epp#clientUpdateProhibited",
	}, r.Status[2])
}

func TestAnalyzeWhoisCN(t *testing.T) {
	response := `Registration Time: 2025-03-01 12:00:00
Expiration Time: 2026-03-01 12:00:00
Name Server: ns1.example.com
Name Server: ns2.example.com
DNSSEC: unsigned
Sponsoring Registrar: Example Registrar
Domain Status: active`

	r := AnalyzeWhoisAt(response, parseNow)

	// CNNIC times are Beijing time
	assert.Equal(t, "2025-03-01T04:00:00Z", r.CreationDate)
	assert.Equal(t, "2026-03-01T04:00:00Z", r.ExpirationDate)
	assert.Equal(t, []string{"ns1.example.com", "ns2.example.com"}, r.NameServers)
	assert.Equal(t, "unsigned", r.DNSSec)
	assert.Equal(t, "Example Registrar", r.Registrar)
	assert.Equal(t, []structs.DomainStatus{{Status: "active", URL: "https://icann.org/epp#active"}}, r.Status)
	assert.Equal(t, "", r.Domain)
}

func TestAnalyzeWhoisLA(t *testing.T) {
	response := `Domain Name: NIC.LA
Registry Domain ID: D472370-LANIC
Registrar WHOIS Server: whois.nic.la
Registrar URL:
Updated Date: 2016-10-17T04:13:14.0Z
Creation Date: 2000-11-20T01:00:00.0Z
Registry Expiry Date: 2026-11-20T23:59:59.0Z
Registrar: TLD Registrar Solutions Ltd
Registrar IANA ID:
Domain Status: serverTransferProhibited https://icann.org/epp#serverTransferProhibited
Domain Status: serverUpdateProhibited https://icann.org/epp#serverUpdateProhibited
Domain Status: serverDeleteProhibited https://icann.org/epp#serverDeleteProhibited
Domain Status: serverRenewProhibited https://icann.org/epp#serverRenewProhibited
Domain Status: clientTransferProhibited https://icann.org/epp#clientTransferProhibited
Registrant Email: https://whois.nic.la/contact/nic.la/registrant
Admin Email: https://whois.nic.la/contact/nic.la/admin
Tech Email: https://whois.nic.la/contact/nic.la/tech
Name Server: NS0.CENTRALNIC-DNS.COM
Name Server: NS1.CENTRALNIC-DNS.COM
Name Server: NS2.CENTRALNIC-DNS.COM
Name Server: NS3.CENTRALNIC-DNS.COM
Name Server: NS4.CENTRALNIC-DNS.COM
Name Server: NS5.CENTRALNIC-DNS.COM
DNSSEC: unsigned
Registrar Abuse Contact Email: abuse@centralnic.com
Registrar Abuse Contact Phone: +44.2033880600
URL of the ICANN Whois Inaccuracy Complaint Form: https://www.icann.org/wicf/
>>> Last update of WHOIS database: 2025-10-12T05:44:20.0Z <<<`

	r := AnalyzeWhoisAt(response, parseNow)

	assert.Equal(t, "nic.la", r.Domain)
	assert.Equal(t, "TLD Registrar Solutions Ltd", r.Registrar)
	assert.Equal(t, "whois.nic.la", r.WhoisServer)
	assert.Equal(t, structs.Unknown, r.RegistrarURL, "empty value stays at the sentinel")
	assert.Equal(t, structs.Unknown, r.IanaID)
	assert.Equal(t, "2016-10-17T04:13:14Z", r.UpdatedDate)
	assert.Equal(t, "2000-11-20T01:00:00Z", r.CreationDate)
	assert.Equal(t, "2026-11-20T23:59:59Z", r.ExpirationDate)
	assert.Equal(t, "https://whois.nic.la/contact/nic.la/registrant", r.RegistrantEmail)
	assert.Len(t, r.NameServers, 6)
	assert.Equal(t, "ns0.centralnic-dns.com", r.NameServers[0])
	require.Len(t, r.Status, 5)
	assert.Equal(t, "serverTransferProhibited", r.Status[0].Status)
	assert.Equal(t, "https://icann.org/epp#clientTransferProhibited", r.Status[4].URL)

	require.NotNil(t, r.DomainAge)
	assert.Equal(t, 24, *r.DomainAge)
	require.NotNil(t, r.RemainingDays)
	assert.Equal(t, 401, *r.RemainingDays)
}

func TestAnalyzeWhoisHeaderBlocks(t *testing.T) {
	t.Run("HK name servers after blank line", func(t *testing.T) {
		response := `Domain Name:  EXAMPLE.HK
Registrar Name: Example Registrar Ltd.

Name Servers Information:

ns1.example.hk
ns2.example.hk

Registrant Contact Information:
Company English Name (It should be the same as the registered/corporation name on your Business Register Certificate or relevant documents): Example Ltd`

		r := AnalyzeWhoisAt(response, parseNow)
		assert.Equal(t, "example.hk", r.Domain)
		assert.Equal(t, "Example Registrar Ltd.", r.Registrar)
		assert.Equal(t, []string{"ns1.example.hk", "ns2.example.hk"}, r.NameServers)
	})

	t.Run("TW sentence dates and listed servers", func(t *testing.T) {
		response := `Domain Name: example.tw
   Domain Status: clientTransferProhibited
   Registrant:
      Example Org
   Record expires on 2026-01-01 (YYYY-MM-DD)
   Record created on 2000-01-01 (YYYY-MM-DD)

   Domain servers in listed order:
      ns1.example.tw
      ns2.example.tw

Registration Service Provider: HiNet`

		r := AnalyzeWhoisAt(response, parseNow)
		assert.Equal(t, "2000-01-01T00:00:00Z", r.CreationDate)
		assert.Equal(t, "2026-01-01T00:00:00Z", r.ExpirationDate)
		assert.Equal(t, []string{"ns1.example.tw", "ns2.example.tw"}, r.NameServers)
		assert.Equal(t, "HiNet", r.Registrar)
		assert.Equal(t, structs.Unknown, r.RegistrantOrganization)
	})

	t.Run("indented rows with addresses", func(t *testing.T) {
		response := `Domain Name: EXAMPLE.SG
Name Servers:
    ns1.example.sg
    ns2.example.sg 2001:db8::53
Registrar: Example SG`

		r := AnalyzeWhoisAt(response, parseNow)
		assert.Equal(t, []string{"ns1.example.sg", "ns2.example.sg"}, r.NameServers)
		assert.Equal(t, "Example SG", r.Registrar)
	})
}

func TestAnalyzeWhoisRIR(t *testing.T) {
	response := `% This is the RIPE Database query service.
% The objects are in RPSL format.

inetnum:        193.0.0.0 - 193.0.7.255
netname:        RIPE-NCC
descr:          RIPE Network Coordination Centre
                Amsterdam, Netherlands
country:        NL
status:         ASSIGNED PA

% Information related to '193.0.0.0/21AS3333'

route:          193.0.0.0/21
origin:         AS3333`

	r := AnalyzeWhoisAt(response, parseNow)
	assert.Equal(t, "193.0.0.0 - 193.0.7.255", r.InetNum)
	assert.Equal(t, "RIPE-NCC", r.NetName)
	assert.Equal(t, "NL", r.RegistrantCountry)
	assert.Equal(t, "193.0.0.0/21", r.CIDR)
	assert.Equal(t, "AS3333", r.OriginAS)
	assert.True(t, r.HasNetworkData())
	assert.True(t, IsEmptyResult(&r))
}

func TestAnalyzeWhoisRuState(t *testing.T) {
	response := `domain:        YANDEX.RU
nserver:       ns1.yandex.ru.
nserver:       ns2.yandex.ru.
state:         REGISTERED, DELEGATED, VERIFIED
org:           YANDEX, LLC.
registrar:     RU-CENTER-RU
created:       1997-09-23T09:45:07Z
paid-till:     2026-09-30T21:00:00Z`

	r := AnalyzeWhoisAt(response, parseNow)
	assert.Equal(t, "yandex.ru", r.Domain)
	assert.Equal(t, []string{"ns1.yandex.ru", "ns2.yandex.ru"}, r.NameServers)
	assert.Equal(t, "RU-CENTER-RU", r.Registrar)
	assert.Equal(t, "2026-09-30T21:00:00Z", r.ExpirationDate)
	require.Len(t, r.Status, 1)
	assert.Equal(t, "REGISTERED, DELEGATED, VERIFIED", r.Status[0].Status)
	assert.Equal(t, "https://icann.org/epp", r.Status[0].URL)
}

func TestAnalyzeWhoisStatusForms(t *testing.T) {
	response := `Domain Status: CLIENT_HOLD
Domain Status: clientDeleteProhibited, clientTransferProhibited
Domain Status: registryLocked`

	r := AnalyzeWhoisAt(response, parseNow)
	assert.Equal(t, []structs.DomainStatus{
		{Status: "clientHold", URL: "https://icann.org/epp#clientHold"},
		{Status: "clientDeleteProhibited", URL: "https://icann.org/epp#clientDeleteProhibited"},
		{Status: "clientTransferProhibited", URL: "https://icann.org/epp#clientTransferProhibited"},
		{Status: "registryLocked", URL: "https://icann.org/epp"},
	}, r.Status)
}

func TestAnalyzeWhoisUnparsableDate(t *testing.T) {
	response := `Domain Name: EXAMPLE.COM
Creation Date: before the flood
Registry Expiry Date: sometime`

	r := AnalyzeWhoisAt(response, parseNow)
	assert.Equal(t, "before the flood", r.CreationDate)
	assert.Equal(t, "sometime", r.ExpirationDate)
	assert.Nil(t, r.DomainAge)
	assert.Nil(t, r.RemainingDays)
}

func TestAnalyzeWhoisExpired(t *testing.T) {
	r := AnalyzeWhoisAt("Registry Expiry Date: 2025-10-05T00:00:00Z", parseNow)
	require.NotNil(t, r.RemainingDays)
	assert.Equal(t, -10, *r.RemainingDays)
}

func TestAnalyzeWhoisMalformed(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"::::::",
		":value without key",
		strings.Repeat("x", 10000),
		"\x00\x01\x02 garbage \xff\xfe",
		"% only\n# comments\n>>> here <<<",
		"Domain Status:",
		"Name Server:\n\n\n",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			r := AnalyzeWhoisAt(in, parseNow)
			assert.Equal(t, structs.NewWhoisResult(), r, "input %q", in)
		})
	}
}

func TestAnalyzeWhoisContinuationLines(t *testing.T) {
	t.Run("multi-line scalar", func(t *testing.T) {
		response := `Domain Name: EXAMPLE.COM
Registrant Organization: Example Holdings
    International Ltd
Registrant Country: GB`

		r := AnalyzeWhoisAt(response, parseNow)
		assert.Equal(t, "Example Holdings International Ltd", r.RegistrantOrganization)
		assert.Equal(t, "GB", r.RegistrantCountry)
	})

	t.Run("rir attribute block", func(t *testing.T) {
		response := `inetnum:        193.0.0.0 - 193.0.7.255
netname:        RIPE-NCC
                AMS
country:        NL`

		r := AnalyzeWhoisAt(response, parseNow)
		assert.Equal(t, "RIPE-NCC AMS", r.NetName)
		assert.Equal(t, "NL", r.RegistrantCountry)
	})

	t.Run("later value does not extend an earlier one", func(t *testing.T) {
		response := `Registrar: First Registrar
Registrar: Second Registrar
    Continued`

		r := AnalyzeWhoisAt(response, parseNow)
		assert.Equal(t, "First Registrar", r.Registrar)
	})

	t.Run("dates are not extended", func(t *testing.T) {
		response := `Creation Date: 2000-01-01T00:00:00Z
    (registry time)`

		r := AnalyzeWhoisAt(response, parseNow)
		assert.Equal(t, "2000-01-01T00:00:00Z", r.CreationDate)
	})
}

func TestAnalyzeWhoisStatusReferenceLine(t *testing.T) {
	response := `Domain Status: clientHold
https://icann.org/epp#clientHold
Domain Status: ok
Name Server: ns1.example.com`

	r := AnalyzeWhoisAt(response, parseNow)
	assert.Equal(t, []structs.DomainStatus{
		{Status: "clientHold", URL: "https://icann.org/epp#clientHold"},
		{Status: "ok", URL: "https://icann.org/epp#ok"},
	}, r.Status)
	assert.Equal(t, []string{"ns1.example.com"}, r.NameServers)
}
