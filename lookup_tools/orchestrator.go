package lookup_tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KincaidYang/next-whois/rdap_tools"
	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/KincaidYang/next-whois/utils"
	"github.com/KincaidYang/next-whois/whois_tools"
	"go.uber.org/zap"
)

// DefaultTimeout bounds each protocol branch independently.
const DefaultTimeout = 15 * time.Second

// UnsupportedTLDMessage is reported when only the IANA root WHOIS answered and RDAP failed.
const UnsupportedTLDMessage = "No WHOIS/RDAP server available for this TLD"

// RDAPLookuper is the RDAP side of a lookup.
type RDAPLookuper interface {
	Lookup(ctx context.Context, query string, qt structs.QueryType) (*rdap_tools.RDAPResponse, error)
}

// WhoisLookuper is the port 43 side of a lookup.
type WhoisLookuper interface {
	Lookup(ctx context.Context, query string, qt structs.QueryType, maxFollow int) (*whois_tools.WhoisResponse, error)
}

// ConvertFunc turns an RDAP JSON object into a record.
type ConvertFunc func(raw []byte, query string, now time.Time) (structs.WhoisResult, error)

// Orchestrator runs RDAP and WHOIS side by side and assembles one envelope from
// whatever came back.
type Orchestrator struct {
	RDAP  RDAPLookuper
	Whois WhoisLookuper

	// Timeout applies to each branch on its own; zero means DefaultTimeout.
	Timeout time.Duration
	// MaxWhoisFollow is the referral budget for domain queries. Other query types never follow.
	MaxWhoisFollow int

	Convert ConvertFunc
	Now     func() time.Time
}

// NewOrchestrator wires the two protocol clients with the standard RDAP converter.
func NewOrchestrator(rdapClient RDAPLookuper, whoisClient WhoisLookuper, timeout time.Duration, maxWhoisFollow int) *Orchestrator {
	return &Orchestrator{
		RDAP:           rdapClient,
		Whois:          whoisClient,
		Timeout:        timeout,
		MaxWhoisFollow: maxWhoisFollow,
		Convert:        rdap_tools.ConvertRDAPToWhoisResultAt,
		Now:            time.Now,
	}
}

type rdapOutcome struct {
	resp *rdap_tools.RDAPResponse
	err  error
}

type whoisOutcome struct {
	resp *whois_tools.WhoisResponse
	err  error
}

// Lookup resolves query and never returns an error: every failure ends up in the
// envelope's Error field with Status false.
func (o *Orchestrator) Lookup(ctx context.Context, query string) structs.LookupEnvelope {
	start := time.Now()
	qt := ClassifyQuery(query)
	target := DispatchQuery(query, qt)

	var (
		wg sync.WaitGroup
		rd rdapOutcome
		wh whoisOutcome
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		bctx, cancel := context.WithTimeout(ctx, o.timeout())
		defer cancel()
		rd.resp, rd.err = o.RDAP.Lookup(bctx, target, qt)
	}()
	go func() {
		defer wg.Done()
		bctx, cancel := context.WithTimeout(ctx, o.timeout())
		defer cancel()
		wh.resp, wh.err = o.Whois.Lookup(bctx, target, qt, o.followBudget(qt))
	}()
	wg.Wait()

	if rd.err != nil {
		o.branchFailed("rdap", query, rd.err)
	}
	if wh.err != nil {
		o.branchFailed("whois", query, wh.err)
	}

	env := o.assemble(query, target, rd, wh)
	env.Time = time.Since(start).Seconds()

	source := env.Source
	if source == "" {
		source = "none"
	}
	utils.LookupsTotal.WithLabelValues(source, fmt.Sprint(env.Status)).Inc()
	utils.LookupDuration.WithLabelValues(source).Observe(env.Time)
	zap.L().Info("lookup finished",
		zap.String("query", query),
		zap.Stringer("type", qt),
		zap.String("source", env.Source),
		zap.Bool("status", env.Status),
		zap.Float64("elapsed", env.Time))
	return env
}

func (o *Orchestrator) assemble(query, target string, rd rdapOutcome, wh whoisOutcome) structs.LookupEnvelope {
	now := o.now()
	whoisOK := wh.err == nil && wh.resp != nil

	var rawWhois string
	if whoisOK {
		rawWhois = wh.resp.Raw
	}

	rdapErr := rd.err
	if rdapErr == nil && rd.resp != nil {
		primary, err := o.convert(rd.resp.Raw, target, now)
		if err == nil {
			if len(rd.resp.Referral) > 0 {
				if registrar, err := o.convert(rd.resp.Referral, target, now); err == nil {
					// registry data wins over the registrar's
					primary = Merge(primary, registrar)
				} else {
					zap.L().Warn("discarding registrar rdap record",
						zap.String("query", query), zap.String("server", rd.resp.ReferralServer), zap.Error(err))
				}
			}
			if whoisOK && !wh.resp.IANAOnly {
				primary = Merge(primary, whois_tools.AnalyzeWhoisAt(rawWhois, now))
			}
			if rawWhois != "" {
				primary.RawWhoisContent = rawWhois
			}
			if whoisOK {
				hintWhoisServer(&primary, wh.resp)
			}
			return structs.LookupEnvelope{Status: true, Source: structs.SourceRDAP, Result: &primary}
		}
		zap.L().Warn("rdap conversion failed", zap.String("query", query), zap.Error(err))
		utils.BranchFailures.WithLabelValues("rdap", "parse").Inc()
		rdapErr = fmt.Errorf("%w: %v", utils.ErrTransport, err)
	} else if rdapErr == nil {
		rdapErr = fmt.Errorf("%w: rdap returned nothing", utils.ErrTransport)
	}

	var rawRdap string
	if rd.resp != nil {
		rawRdap = string(rd.resp.Raw)
	}
	fail := func(msg string) structs.LookupEnvelope {
		return structs.LookupEnvelope{Error: msg, RawWhoisContent: rawWhois, RawRdapContent: rawRdap}
	}

	if !whoisOK {
		// both branches failed; the RDAP error names the problem better
		return fail(rdapErr.Error())
	}

	if wh.resp.IANAOnly {
		return fail(UnsupportedTLDMessage)
	}

	// a matched pattern wins even when some fields would parse
	if msg := whois_tools.DetectWhoisError(rawWhois); msg != "" {
		return fail(msg)
	}
	record := whois_tools.AnalyzeWhoisAt(rawWhois, now)
	if whois_tools.IsEmptyResult(&record) && !record.HasNetworkData() {
		return fail("No WHOIS data found for " + query)
	}

	record.RawWhoisContent = rawWhois
	hintWhoisServer(&record, wh.resp)
	return structs.LookupEnvelope{Status: true, Source: structs.SourceWhois, Result: &record}
}

// hintWhoisServer fills whoisServer from the last hop when nothing named one.
func hintWhoisServer(r *structs.WhoisResult, resp *whois_tools.WhoisResponse) {
	if structs.IsUnknown(r.WhoisServer) && resp.Server != "" && !resp.IANAOnly {
		r.WhoisServer = resp.Server
	}
}

func (o *Orchestrator) branchFailed(branch, query string, err error) {
	kind := utils.ErrorKind(err)
	utils.BranchFailures.WithLabelValues(branch, kind).Inc()
	zap.L().Warn("lookup branch failed",
		zap.String("branch", branch),
		zap.String("query", query),
		zap.String("kind", kind),
		zap.Error(err))
}

func (o *Orchestrator) followBudget(qt structs.QueryType) int {
	if qt != structs.QueryDomain || o.MaxWhoisFollow < 0 {
		return 0
	}
	return o.MaxWhoisFollow
}

func (o *Orchestrator) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o *Orchestrator) convert(raw []byte, query string, now time.Time) (structs.WhoisResult, error) {
	if o.Convert == nil {
		return rdap_tools.ConvertRDAPToWhoisResultAt(raw, query, now)
	}
	return o.Convert(raw, query, now)
}
