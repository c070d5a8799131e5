package utils

import "strings"

// EppStatusCategory groups EPP status tokens by who set them or what they mean.
type EppStatusCategory string

const (
	EppCategoryOK         EppStatusCategory = "ok"
	EppCategoryClient     EppStatusCategory = "client"
	EppCategoryServer     EppStatusCategory = "server"
	EppCategoryPending    EppStatusCategory = "pending"
	EppCategoryGrace      EppStatusCategory = "grace"
	EppCategoryRedemption EppStatusCategory = "redemption"
)

// EppStatusInfo describes a known EPP status token.
type EppStatusInfo struct {
	Category    EppStatusCategory `json:"category"`
	DisplayName string            `json:"displayName"`
	Description string            `json:"description"`
}

const eppReferenceURL = "https://icann.org/epp"

var eppCategoryLabels = map[EppStatusCategory]string{
	EppCategoryOK:         "Active",
	EppCategoryClient:     "Client Lock",
	EppCategoryServer:     "Server Lock",
	EppCategoryPending:    "Pending",
	EppCategoryGrace:      "Grace Period",
	EppCategoryRedemption: "Redemption",
}

// eppStatuses is keyed by the normalized token (see normalizeEppToken).
var eppStatuses = map[string]EppStatusInfo{
	"ok": {EppCategoryOK, "ok",
		"This is the standard status for a domain, meaning no pending operations or prohibitions."},
	"active": {EppCategoryOK, "active",
		"The domain is active and delegated in the DNS."},
	"inactive": {EppCategoryRedemption, "inactive",
		"The domain has not been delegated in the DNS and will not resolve."},
	"addperiod": {EppCategoryGrace, "addPeriod",
		"Initial registration grace period. The domain can be deleted for a refund within a few days of registration."},
	"autorenewperiod": {EppCategoryGrace, "autoRenewPeriod",
		"Auto-renewal grace period after automatic renewal. Registrar may delete registration for a refund."},
	"renewperiod": {EppCategoryGrace, "renewPeriod",
		"Renewal grace period. The registrar may delete the registration for a refund."},
	"transferperiod": {EppCategoryGrace, "transferPeriod",
		"Transfer grace period after a successful transfer. The new registrar may delete for a refund."},
	"clientdeleteprohibited": {EppCategoryClient, "clientDeleteProhibited",
		"The registrar has set this status to prevent the domain from being deleted."},
	"clienthold": {EppCategoryClient, "clientHold",
		"The registrar has suspended the domain. It will not resolve in the DNS."},
	"clientrenewprohibited": {EppCategoryClient, "clientRenewProhibited",
		"The registrar has locked the domain to prevent renewal."},
	"clienttransferprohibited": {EppCategoryClient, "clientTransferProhibited",
		"The registrar has locked the domain to prevent transfer to another registrar."},
	"clientupdateprohibited": {EppCategoryClient, "clientUpdateProhibited",
		"The registrar has locked the domain to prevent any changes to the domain record."},
	"serverdeleteprohibited": {EppCategoryServer, "serverDeleteProhibited",
		"The registry has set this status to prevent the domain from being deleted."},
	"serverhold": {EppCategoryServer, "serverHold",
		"The registry has suspended the domain. It will not resolve in the DNS."},
	"serverrenewprohibited": {EppCategoryServer, "serverRenewProhibited",
		"The registry has locked the domain to prevent renewal."},
	"servertransferprohibited": {EppCategoryServer, "serverTransferProhibited",
		"The registry has locked the domain to prevent transfer."},
	"serverupdateprohibited": {EppCategoryServer, "serverUpdateProhibited",
		"The registry has locked the domain to prevent any changes."},
	"pendingcreate": {EppCategoryPending, "pendingCreate",
		"A request to create the domain has been received and is being processed."},
	"pendingdelete": {EppCategoryPending, "pendingDelete",
		"The domain is scheduled for deletion. It cannot be restored and will be purged soon."},
	"pendingrenew": {EppCategoryPending, "pendingRenew",
		"A request to renew the domain has been received and is being processed."},
	"pendingrestore": {EppCategoryPending, "pendingRestore",
		"A restore request has been received after redemption period. Pending registry approval."},
	"pendingtransfer": {EppCategoryPending, "pendingTransfer",
		"A transfer request has been received and is pending approval or rejection."},
	"pendingupdate": {EppCategoryPending, "pendingUpdate",
		"A request to update the domain has been received and is being processed."},
	"redemptionperiod": {EppCategoryRedemption, "redemptionPeriod",
		"The domain has been deleted but can still be restored by the registrar for an additional fee."},
}

// normalizeEppToken lower-cases the token and drops whitespace, underscores and hyphens,
// so "clientTransferProhibited", "CLIENT_TRANSFER_PROHIBITED" and
// "client transfer prohibited" share one key.
func normalizeEppToken(status string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(status) {
		switch r {
		case ' ', '\t', '\r', '\n', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GetEppStatusInfo looks up a status token. ok is false for tokens outside the catalog.
func GetEppStatusInfo(status string) (EppStatusInfo, bool) {
	info, ok := eppStatuses[normalizeEppToken(status)]
	return info, ok
}

// EppStatusDisplayName returns the canonical casing, or status itself when unknown.
func EppStatusDisplayName(status string) string {
	if info, ok := GetEppStatusInfo(status); ok {
		return info.DisplayName
	}
	return status
}

// EppStatusLink returns the ICANN reference for status.
func EppStatusLink(status string) string {
	if info, ok := GetEppStatusInfo(status); ok {
		return eppReferenceURL + "#" + info.DisplayName
	}
	return eppReferenceURL
}

// EppStatusLabel returns the human label of the status category.
func EppStatusLabel(status string) string {
	if info, ok := GetEppStatusInfo(status); ok {
		return eppCategoryLabels[info.Category]
	}
	return "Unknown"
}
