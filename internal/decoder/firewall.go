package decoder

import (
	"log/slog"
	"regexp"
	"time"

	"flowlog-analyzer/internal/model"
)

// Azure Firewall packs the flow attributes into a free-text message such as
//
//	"TCP request from 10.0.0.4:49158 to 8.8.8.8:443. Action: Deny"
//
// Extraction is best effort: whatever subset of fields matches is kept and
// the rest stays absent. Only an entry without a message at all is dropped.
var (
	fwActionRe   = regexp.MustCompile(`Action:\s(\w*)`)
	fwSourceRe   = regexp.MustCompile(`from\s(\S*)`)
	fwDestRe     = regexp.MustCompile(`to\s(\S*)`)
	fwIPRe       = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)
	fwPortRe     = regexp.MustCompile(`:(\d+)`)
	fwProtocolRe = regexp.MustCompile(`^(.*)\srequest`)
)

type firewallEntry struct {
	Time       string              `json:"time"`
	ResourceID string              `json:"resourceId"`
	Category   string              `json:"category"`
	Properties *firewallProperties `json:"properties"`
}

type firewallProperties struct {
	Msg string `json:"msg"`
}

func decodeFirewallEntries(entries []firewallEntry) []model.FlowRecord {
	var records []model.FlowRecord
	for _, entry := range entries {
		if entry.Properties == nil || entry.Properties.Msg == "" {
			slog.Warn("Skipping firewall log entry without properties.msg",
				"resource_id", entry.ResourceID, "time", entry.Time)
			continue
		}

		timestamp, err := time.Parse(time.RFC3339Nano, entry.Time)
		if err != nil {
			slog.Warn("Skipping firewall log entry with unparseable timestamp",
				"time", entry.Time, "error", err)
			continue
		}

		rec := model.FlowRecord{
			Timestamp: timestamp,
			Source:    model.SourceFirewall,
			Resource:  resourceFromID(entry.ResourceID),
		}
		extractMessageFields(entry.Properties.Msg, &rec)
		records = append(records, rec)
	}
	return records
}

// extractMessageFields pattern-matches one firewall message into rec.
// Unmatched portions leave their fields absent.
func extractMessageFields(msg string, rec *model.FlowRecord) {
	if m := fwActionRe.FindStringSubmatch(msg); m != nil && m[1] != "" {
		// "Deny" -> "D", "Allow" -> "A"
		rec.Action = model.Action(m[1][:1])
	}

	// The source block only counts when the message names exactly one.
	if m := fwSourceRe.FindAllStringSubmatch(msg, -1); len(m) == 1 {
		block := m[0][1]
		if ips := fwIPRe.FindAllString(block, -1); len(ips) == 1 {
			rec.SrcIP = ips[0]
		}
		if ports := fwPortRe.FindAllStringSubmatch(block, -1); len(ports) > 0 {
			rec.SrcPort = ports[0][1]
		}
	}

	if m := fwDestRe.FindAllStringSubmatch(msg, -1); len(m) == 1 {
		block := m[0][1]
		if ips := fwIPRe.FindAllString(block, -1); len(ips) == 1 {
			rec.DstIP = ips[0]
		}
		if ports := fwPortRe.FindAllStringSubmatch(block, -1); len(ports) == 1 {
			rec.DstPort = ports[0][1]
		}
	}

	if m := fwProtocolRe.FindStringSubmatch(msg); m != nil && m[1] != "" {
		// "TCP request ..." -> "T"; ICMP flows have no ports.
		rec.Protocol = m[1][:1]
		if rec.Protocol == "I" {
			rec.SrcPort = ""
			rec.DstPort = ""
		}
	}
}
