package lookup_tools

import (
	"slices"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
)

// Merge fills gaps in primary with values from secondary, field by field.
// Strings fall back when primary is blank or Unknown, sequences when primary is empty,
// optional numbers when primary is nil and scores when primary is NoScore.
// Merge(x, x) == x and Merge(x, NewWhoisResult()) == x.
func Merge(primary, secondary structs.WhoisResult) structs.WhoisResult {
	out := primary
	out.Status = slices.Clone(primary.Status)
	out.NameServers = slices.Clone(primary.NameServers)

	mergeString(&out.Domain, secondary.Domain)
	mergeString(&out.Registrar, secondary.Registrar)
	mergeString(&out.RegistrarURL, secondary.RegistrarURL)
	mergeString(&out.IanaID, secondary.IanaID)
	mergeString(&out.WhoisServer, secondary.WhoisServer)
	mergeString(&out.UpdatedDate, secondary.UpdatedDate)
	mergeString(&out.CreationDate, secondary.CreationDate)
	mergeString(&out.ExpirationDate, secondary.ExpirationDate)
	mergeString(&out.DNSSec, secondary.DNSSec)

	mergeString(&out.RegistrantOrganization, secondary.RegistrantOrganization)
	mergeString(&out.RegistrantProvince, secondary.RegistrantProvince)
	mergeString(&out.RegistrantCountry, secondary.RegistrantCountry)
	mergeString(&out.RegistrantPhone, secondary.RegistrantPhone)
	mergeString(&out.RegistrantEmail, secondary.RegistrantEmail)

	mergeString(&out.CIDR, secondary.CIDR)
	mergeString(&out.InetNum, secondary.InetNum)
	mergeString(&out.Inet6Num, secondary.Inet6Num)
	mergeString(&out.NetRange, secondary.NetRange)
	mergeString(&out.NetName, secondary.NetName)
	mergeString(&out.NetType, secondary.NetType)
	mergeString(&out.OriginAS, secondary.OriginAS)

	mergeString(&out.RawWhoisContent, secondary.RawWhoisContent)
	mergeString(&out.RawRdapContent, secondary.RawRdapContent)

	// sequences are taken whole, never concatenated
	if len(out.Status) == 0 && len(secondary.Status) > 0 {
		out.Status = slices.Clone(secondary.Status)
	}
	if len(out.NameServers) == 0 && len(secondary.NameServers) > 0 {
		out.NameServers = slices.Clone(secondary.NameServers)
	}

	if out.DomainAge == nil {
		out.DomainAge = secondary.DomainAge
	}
	if out.RemainingDays == nil {
		out.RemainingDays = secondary.RemainingDays
	}
	if out.RegisterPrice == nil {
		out.RegisterPrice = secondary.RegisterPrice
	}
	if out.RenewPrice == nil {
		out.RenewPrice = secondary.RenewPrice
	}
	if out.TransferPrice == nil {
		out.TransferPrice = secondary.TransferPrice
	}

	mergeScore(&out.MozDomainAuthority, secondary.MozDomainAuthority)
	mergeScore(&out.MozPageAuthority, secondary.MozPageAuthority)
	mergeScore(&out.MozSpamScore, secondary.MozSpamScore)
	return out
}

func mergeString(dst *string, src string) {
	if structs.IsUnknown(*dst) && !structs.IsUnknown(src) {
		*dst = src
	}
}

func mergeScore(dst *int, src int) {
	if *dst == structs.NoScore {
		*dst = src
	}
}
