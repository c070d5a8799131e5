package rdap_tools

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var convertNow = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func TestConvertDomain(t *testing.T) {
	r, err := ConvertRDAPToWhoisResultAt(loadFixture(t, "google_registry.json"), "google.com", convertNow)
	require.NoError(t, err)

	assert.Equal(t, "google.com", r.Domain)
	assert.Equal(t, "MarkMonitor Inc.", r.Registrar)
	assert.Equal(t, "292", r.IanaID)
	assert.Equal(t, "1997-09-15T04:00:00Z", r.CreationDate)
	assert.Equal(t, "2028-09-14T04:00:00Z", r.ExpirationDate)
	assert.Equal(t, "2019-09-09T15:39:04Z", r.UpdatedDate)
	assert.Equal(t, "unsigned", r.DNSSec)
	assert.Equal(t, []string{"ns1.google.com", "ns2.google.com"}, r.NameServers)
	assert.Equal(t, []structs.DomainStatus{
		{Status: "clientDeleteProhibited", URL: "https://icann.org/epp#clientDeleteProhibited"},
		{Status: "clientTransferProhibited", URL: "https://icann.org/epp#clientTransferProhibited"},
		{Status: "serverHold", URL: "https://icann.org/epp#serverHold"},
	}, r.Status)
	assert.Equal(t, structs.Unknown, r.WhoisServer)
	assert.Equal(t, structs.Unknown, r.RegistrantOrganization)

	require.NotNil(t, r.DomainAge)
	assert.Equal(t, 28, *r.DomainAge)
	require.NotNil(t, r.RemainingDays)
	assert.Positive(t, *r.RemainingDays)

	assert.Contains(t, r.RawRdapContent, "\n  \"objectClassName\": \"domain\"")
	assert.Equal(t, structs.NoScore, r.MozDomainAuthority)
	assert.Nil(t, r.RegisterPrice)
}

func TestConvertRegistrarDomain(t *testing.T) {
	r, err := ConvertRDAPToWhoisResultAt(loadFixture(t, "google_registrar.json"), "google.com", convertNow)
	require.NoError(t, err)

	assert.Equal(t, "whois.markmonitor.com", r.WhoisServer)
	assert.Equal(t, "MarkMonitor, Inc.", r.Registrar)
	assert.Equal(t, "http://www.markmonitor.com", r.RegistrarURL)
	assert.Equal(t, "Google LLC", r.RegistrantOrganization)
	assert.Equal(t, "US", r.RegistrantCountry)
	assert.Equal(t, "CA", r.RegistrantProvince)
	assert.Equal(t, "2028-09-13T07:00:00Z", r.ExpirationDate)
	assert.Equal(t, structs.Unknown, r.DNSSec, "no secureDNS member leaves dnssec unknown")
}

func TestConvertIPNetwork(t *testing.T) {
	r, err := ConvertRDAPToWhoisResultAt(loadFixture(t, "ip_network.json"), "8.8.8.8", convertNow)
	require.NoError(t, err)

	assert.Equal(t, "", r.Domain)
	assert.Equal(t, "8.8.8.0 - 8.8.8.255", r.InetNum)
	assert.Equal(t, "8.8.8.0 - 8.8.8.255", r.NetRange)
	assert.Equal(t, structs.Unknown, r.Inet6Num)
	assert.Equal(t, "8.8.8.0/24", r.CIDR)
	assert.Equal(t, "GOGL", r.NetName)
	assert.Equal(t, "DIRECT ALLOCATION", r.NetType)
	assert.Equal(t, "Google LLC", r.RegistrantOrganization)
	assert.Equal(t, "2023-12-28T22:24:33Z", r.CreationDate)
	assert.True(t, r.HasNetworkData())
}

func TestConvertAutnum(t *testing.T) {
	r, err := ConvertRDAPToWhoisResultAt(loadFixture(t, "autnum.json"), "AS15169", convertNow)
	require.NoError(t, err)

	assert.Equal(t, "AS15169", r.OriginAS)
	assert.Equal(t, "GOOGLE", r.NetName)
	assert.Equal(t, "2000-03-30T05:00:00Z", r.CreationDate)
	assert.Nil(t, r.RemainingDays)
}

func TestConvertErrors(t *testing.T) {
	_, err := ConvertRDAPToWhoisResult([]byte("{not json"), "x")
	assert.Error(t, err)

	_, err = ConvertRDAPToWhoisResult([]byte(`{"objectClassName":"entity"}`), "x")
	assert.Error(t, err)

	_, err = ConvertRDAPToWhoisResult([]byte(`[]`), "x")
	assert.Error(t, err)
}

func TestConvertToleratesWrongTypes(t *testing.T) {
	raw := []byte(`{
		"objectClassName": "domain",
		"ldhName": 42,
		"status": "active",
		"entities": [7, {"roles": "registrar"}, {"roles": ["registrar"], "vcardArray": ["vcard", "oops"]}],
		"events": [{"eventAction": "registration", "eventDate": 1}, "bad"],
		"nameservers": [null, {"ldhName": ["x"]}],
		"secureDNS": "yes",
		"cidr0_cidrs": [{"length": "24"}]
	}`)
	assert.NotPanics(t, func() {
		r, err := ConvertRDAPToWhoisResultAt(raw, "Example.COM", convertNow)
		require.NoError(t, err)
		assert.Equal(t, "example.com", r.Domain)
		assert.Empty(t, r.Status)
		assert.Empty(t, r.NameServers)
		assert.Equal(t, structs.Unknown, r.Registrar)
		assert.Equal(t, structs.Unknown, r.CreationDate)
	})
}
