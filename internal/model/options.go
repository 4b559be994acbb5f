package model

import "fmt"

// Direction filter values accepted on the command line.
const (
	DisplayIn   = "in"
	DisplayOut  = "out"
	DisplayBoth = "both"
)

// Analyzer modes.
const (
	ModeNSG  = "nsg"
	ModeFW   = "fw"
	ModeBoth = "both"
)

// Options is the full configuration surface consumed by the pipeline.
// Zero values disable the corresponding filter.
type Options struct {
	Hours   int // how many hourly blobs to look back per resource
	Minutes int // recency filter; 0 disables it

	ShowAllowed      bool // also keep allowed flows (default: deny only)
	ShowLoadBalancer bool // keep flows sourced by the Azure LB
	OnlyNonZero      bool // keep only NSG flows with all four counters present
	NoCounters       bool // omit counter columns from output
	Aggregate        bool // print counter totals
	VNetFlowLogs     bool // read VNet flow logs instead of NSG flow logs

	DirectionFilter string // in|out|both
	FlowStateFilter string // B/C/E
	IPFilter        string
	IP2Filter       string
	PortFilter      string
	ProtocolFilter  string
	ResourceName    string
	Mode            string // nsg|fw|both
}

// Validate rejects configuration values that would make the run meaningless.
// Called before any blob is listed or fetched.
func (o *Options) Validate() error {
	switch o.DirectionFilter {
	case DisplayIn, DisplayOut, DisplayBoth:
	default:
		return fmt.Errorf("invalid direction %q: only in|out|both supported", o.DirectionFilter)
	}
	switch o.Mode {
	case ModeNSG, ModeFW, ModeBoth:
	default:
		return fmt.Errorf("invalid mode %q: only nsg|fw|both supported", o.Mode)
	}
	if o.Hours < 0 {
		return fmt.Errorf("invalid hours %d: must be non-negative", o.Hours)
	}
	if o.Minutes < 0 {
		return fmt.Errorf("invalid minutes %d: must be non-negative", o.Minutes)
	}
	return nil
}

// WantsNSG reports whether NSG flow-log containers should be scanned.
func (o *Options) WantsNSG() bool {
	return o.Mode == ModeNSG || o.Mode == ModeBoth
}

// WantsFirewall reports whether the firewall log container should be scanned.
func (o *Options) WantsFirewall() bool {
	return o.Mode == ModeFW || o.Mode == ModeBoth
}
