// Package decoder turns raw blob payloads into normalized flow records.
//
// Two payload families exist: NSG/VNet flow logs (a JSON document with a
// top-level "records" array, tuples encoded per schema version) and Azure
// Firewall logs (newline-delimited JSON objects whose payload is a free-text
// message). Malformed units degrade to partial records or are skipped with a
// logged warning; decoding never fails because of a single bad record.
package decoder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"flowlog-analyzer/internal/model"
)

// Firewall log blobs are not valid JSON documents but one JSON object per
// line, each starting with the category field.
var ndjsonPrefix = []byte(`{ "category"`)

type flowLogDocument struct {
	Records []json.RawMessage `json:"records"`
}

// Decode parses one blob payload and returns the normalized records it
// contains. An error is returned only when the payload as a whole cannot be
// interpreted; individually malformed records are logged and skipped.
func Decode(data []byte) ([]model.FlowRecord, error) {
	if bytes.HasPrefix(data, ndjsonPrefix) {
		return decodeFirewallLines(data), nil
	}

	var doc flowLogDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Records != nil {
		return decodeFlowLogRecords(doc.Records), nil
	}

	// No "records" key: assume a firewall log entry array.
	var entries []firewallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("payload is neither a flow-log document nor a firewall log: %w", err)
	}
	return decodeFirewallEntries(entries), nil
}

// decodeFirewallLines handles newline-delimited firewall payloads. A line
// that does not parse as JSON is a decode warning, not a fatal error; the
// remaining lines are still processed.
func decodeFirewallLines(data []byte) []model.FlowRecord {
	var entries []firewallEntry
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var entry firewallEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			slog.Warn("Skipping unparseable firewall log line", "error", err, "line", string(line))
			continue
		}
		entries = append(entries, entry)
	}
	return decodeFirewallEntries(entries)
}

// resourceFromID extracts the resource name from an Azure resource ID path.
// The name sits at segment 8, the same position the blob locator uses.
func resourceFromID(id string) string {
	parts := strings.Split(id, "/")
	if len(parts) > 8 {
		return parts[8]
	}
	return "unknown"
}
