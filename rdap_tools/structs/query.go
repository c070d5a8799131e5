package structs

// QueryType is the kind of object a lookup query names.
type QueryType int

const (
	QueryDomain QueryType = iota
	QueryIPv4
	QueryIPv6
	QueryASN
	QueryCIDR
)

func (t QueryType) String() string {
	switch t {
	case QueryIPv4:
		return "ipv4"
	case QueryIPv6:
		return "ipv6"
	case QueryASN:
		return "asn"
	case QueryCIDR:
		return "cidr"
	default:
		return "domain"
	}
}
