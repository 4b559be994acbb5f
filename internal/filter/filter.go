// Package filter applies the display options to a normalized record set as
// a chain of independent predicates combined with logical AND. Every
// predicate passes everything through when its option is unset, and the
// chain order never changes the result set.
package filter

import (
	"time"

	"flowlog-analyzer/internal/model"
	"flowlog-analyzer/pkg/wellknown"
)

// Predicate reports whether a record survives one filter.
type Predicate func(rec *model.FlowRecord) bool

// Chain is an ordered list of predicates.
type Chain []Predicate

// NewChain builds the predicate chain for the given options. The recency
// cutoff is computed from now once, so every record is judged against the
// same instant.
func NewChain(opts *model.Options, now time.Time) Chain {
	chain := Chain{
		loadBalancerPredicate(opts),
		actionPredicate(opts),
		flowStatePredicate(opts),
		directionPredicate(opts),
		portPredicate(opts),
		ipPredicate(opts),
		protocolPredicate(opts),
		nonZeroPredicate(opts),
		recencyPredicate(opts, now),
	}
	return chain
}

// Keep reports whether a record survives the whole chain. Evaluation
// short-circuits on the first predicate that rejects.
func (c Chain) Keep(rec *model.FlowRecord) bool {
	for _, pred := range c {
		if !pred(rec) {
			return false
		}
	}
	return true
}

// Apply filters a record slice in one pass.
func (c Chain) Apply(records []model.FlowRecord) []model.FlowRecord {
	filtered := make([]model.FlowRecord, 0, len(records))
	for i := range records {
		if c.Keep(&records[i]) {
			filtered = append(filtered, records[i])
		}
	}
	return filtered
}

func passAll(*model.FlowRecord) bool { return true }

// loadBalancerPredicate drops flows sourced by the Azure load balancer
// unless they were explicitly requested.
func loadBalancerPredicate(opts *model.Options) Predicate {
	if opts.ShowLoadBalancer {
		return passAll
	}
	return func(rec *model.FlowRecord) bool {
		return rec.SrcIP != wellknown.AzureLoadBalancerIP
	}
}

// actionPredicate keeps only denied flows unless allowed flows were
// requested as well.
func actionPredicate(opts *model.Options) Predicate {
	if opts.ShowAllowed {
		return passAll
	}
	return func(rec *model.FlowRecord) bool {
		return rec.Action == model.ActionDeny
	}
}

// flowStatePredicate matches the requested v2 flow state. Firewall records
// carry no flow state and are exempt.
func flowStatePredicate(opts *model.Options) Predicate {
	if opts.FlowStateFilter == "" {
		return passAll
	}
	want := model.FlowState(opts.FlowStateFilter)
	return func(rec *model.FlowRecord) bool {
		return rec.State == want || rec.Source != model.SourceNSG
	}
}

// directionPredicate matches the requested direction, with the same
// non-NSG exemption as the flow-state filter. "both" disables it.
func directionPredicate(opts *model.Options) Predicate {
	var want model.Direction
	switch opts.DirectionFilter {
	case model.DisplayIn:
		want = model.DirectionInbound
	case model.DisplayOut:
		want = model.DirectionOutbound
	default:
		return passAll
	}
	return func(rec *model.FlowRecord) bool {
		return rec.Direction == want || rec.Source != model.SourceNSG
	}
}

func portPredicate(opts *model.Options) Predicate {
	if opts.PortFilter == "" {
		return passAll
	}
	return func(rec *model.FlowRecord) bool {
		return rec.DstPort == opts.PortFilter
	}
}

// ipPredicate has two modes. With a single IP (either flag) any record
// carrying it as source or destination matches. With both IPs set, the
// record's {source, destination} pair must equal the requested pair in
// either order.
func ipPredicate(opts *model.Options) Predicate {
	ip, ip2 := opts.IPFilter, opts.IP2Filter
	switch {
	case ip != "" && ip2 != "":
		return func(rec *model.FlowRecord) bool {
			return (rec.SrcIP == ip && rec.DstIP == ip2) ||
				(rec.SrcIP == ip2 && rec.DstIP == ip)
		}
	case ip != "" || ip2 != "":
		if ip == "" {
			ip = ip2
		}
		return func(rec *model.FlowRecord) bool {
			return rec.SrcIP == ip || rec.DstIP == ip
		}
	default:
		return passAll
	}
}

func protocolPredicate(opts *model.Options) Predicate {
	if opts.ProtocolFilter == "" {
		return passAll
	}
	return func(rec *model.FlowRecord) bool {
		return rec.Protocol == opts.ProtocolFilter
	}
}

// nonZeroPredicate keeps NSG records only when all four counters are
// present. Absent counters mean the schema carried no data, which is not
// the same as zero traffic.
func nonZeroPredicate(opts *model.Options) Predicate {
	if !opts.OnlyNonZero {
		return passAll
	}
	return func(rec *model.FlowRecord) bool {
		return rec.HasAllCounters() || rec.Source != model.SourceNSG
	}
}

// recencyPredicate keeps records strictly newer than now minus the
// requested lookback minutes.
func recencyPredicate(opts *model.Options, now time.Time) Predicate {
	if opts.Minutes <= 0 {
		return passAll
	}
	cutoff := now.Add(-time.Duration(opts.Minutes) * time.Minute)
	return func(rec *model.FlowRecord) bool {
		return rec.Timestamp.After(cutoff)
	}
}
