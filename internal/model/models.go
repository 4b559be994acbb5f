package model

import "time"

// SourceType identifies the kind of resource a record was emitted by.
type SourceType string

const (
	SourceNSG      SourceType = "nsg"
	SourceFirewall SourceType = "fw"
)

// Direction uses the single-letter codes carried in NSG flow tuples.
// Firewall records carry no direction information.
type Direction string

const (
	DirectionInbound  Direction = "I"
	DirectionOutbound Direction = "O"
	DirectionUnknown  Direction = ""
)

// Action uses the single-letter codes carried in NSG flow tuples.
type Action string

const (
	ActionAllow   Action = "A"
	ActionDeny    Action = "D"
	ActionUnknown Action = ""
)

// FlowState is only present in v2+ flow-log schemas.
type FlowState string

const (
	StateBegin    FlowState = "B"
	StateContinue FlowState = "C"
	StateEnd      FlowState = "E"
	StateUnknown  FlowState = ""
)

// FlowRecord is the normalized view of one flow tuple or one firewall log
// line. Counter fields are pointers: nil means the source schema did not
// carry the counter (or the tuple was truncated), which is distinct from a
// recorded value of zero.
type FlowRecord struct {
	Timestamp time.Time
	Source    SourceType
	Resource  string
	Rule      string
	ACLID     string

	SrcIP   string
	DstIP   string
	SrcPort string
	DstPort string

	Protocol  string
	Direction Direction
	Action    Action
	State     FlowState

	PacketsSrcToDst *uint64
	BytesSrcToDst   *uint64
	PacketsDstToSrc *uint64
	BytesDstToSrc   *uint64
}

// HasAllCounters reports whether all four counters were present in the
// source tuple.
func (r *FlowRecord) HasAllCounters() bool {
	return r.PacketsSrcToDst != nil && r.BytesSrcToDst != nil &&
		r.PacketsDstToSrc != nil && r.BytesDstToSrc != nil
}

// Totals holds the aggregate counter sums over a record set.
type Totals struct {
	PacketsSrcToDst uint64
	BytesSrcToDst   uint64
	PacketsDstToSrc uint64
	BytesDstToSrc   uint64
}

// Add merges another Totals into this one.
func (t *Totals) Add(other Totals) {
	t.PacketsSrcToDst += other.PacketsSrcToDst
	t.BytesSrcToDst += other.BytesSrcToDst
	t.PacketsDstToSrc += other.PacketsDstToSrc
	t.BytesDstToSrc += other.BytesDstToSrc
}
