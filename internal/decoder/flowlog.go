package decoder

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"flowlog-analyzer/internal/model"
)

// Flow-log schema versions. V1 and V2 declare themselves in
// properties.Version, V3 and V4 in a top-level flowLogVersion field and nest
// their tuples under flowRecords instead of properties.
type flowLogVersion int

const (
	versionUnsupported flowLogVersion = 0
	versionV1          flowLogVersion = 1
	versionV2          flowLogVersion = 2
	versionV3          flowLogVersion = 3
	versionV4          flowLogVersion = 4
)

type flowLogRecord struct {
	Time              string           `json:"time"`
	ResourceID        string           `json:"resourceId"`
	FlowLogResourceID string           `json:"flowLogResourceID"`
	FlowLogVersion    int              `json:"flowLogVersion"`
	Properties        *flowProperties  `json:"properties"`
	FlowRecords       *vnetFlowRecords `json:"flowRecords"`
}

type flowProperties struct {
	Version int        `json:"Version"`
	Flows   []ruleFlow `json:"flows"`
}

type ruleFlow struct {
	Rule  string      `json:"rule"`
	Flows []innerFlow `json:"flows"`
}

type innerFlow struct {
	FlowTuples []string `json:"flowTuples"`
}

type vnetFlowRecords struct {
	Flows []aclFlow `json:"flows"`
}

type aclFlow struct {
	ACLID      string      `json:"aclID"`
	FlowGroups []flowGroup `json:"flowGroups"`
}

type flowGroup struct {
	Rule       string   `json:"rule"`
	FlowTuples []string `json:"flowTuples"`
}

// detectVersion returns the schema version tag for one record, or
// versionUnsupported when no known indicator is present.
func detectVersion(rec *flowLogRecord) flowLogVersion {
	if rec.Properties != nil {
		switch rec.Properties.Version {
		case 1:
			return versionV1
		case 2:
			return versionV2
		}
	}
	switch rec.FlowLogVersion {
	case 3:
		return versionV3
	case 4:
		return versionV4
	}
	return versionUnsupported
}

func decodeFlowLogRecords(rawRecords []json.RawMessage) []model.FlowRecord {
	var records []model.FlowRecord
	for _, raw := range rawRecords {
		var rec flowLogRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Warn("Skipping unparseable flow-log record", "error", err)
			continue
		}

		version := detectVersion(&rec)
		if version == versionUnsupported {
			slog.Warn("Skipping flow-log record with unsupported schema version",
				"version", rec.FlowLogVersion, "resource_id", rec.ResourceID)
			continue
		}

		resource := "unknown"
		if rec.ResourceID != "" {
			resource = resourceFromID(rec.ResourceID)
		} else if rec.FlowLogResourceID != "" {
			resource = resourceFromID(rec.FlowLogResourceID)
		}

		timestamp, err := time.Parse(time.RFC3339Nano, rec.Time)
		if err != nil {
			slog.Warn("Skipping flow-log record with unparseable timestamp",
				"time", rec.Time, "resource", resource, "error", err)
			continue
		}

		base := model.FlowRecord{
			Timestamp: timestamp,
			Source:    model.SourceNSG,
			Resource:  resource,
		}

		switch version {
		case versionV1, versionV2:
			if rec.Properties == nil {
				continue
			}
			for _, rule := range rec.Properties.Flows {
				base.Rule = rule.Rule
				for _, flow := range rule.Flows {
					for _, tuple := range flow.FlowTuples {
						records = append(records, decodeTuple(version, tuple, base))
					}
				}
			}
		case versionV3, versionV4:
			if rec.FlowRecords == nil {
				continue
			}
			for _, acl := range rec.FlowRecords.Flows {
				base.ACLID = acl.ACLID
				for _, group := range acl.FlowGroups {
					base.Rule = group.Rule
					for _, tuple := range group.FlowTuples {
						records = append(records, decodeTuple(version, tuple, base))
					}
				}
			}
		}
	}
	return records
}

// decodeTuple splits a comma-delimited flow tuple and extracts fields at
// the positions fixed by the schema version. Indices past the end of a
// truncated tuple yield absent values, never an error.
//
// All versions share indices 1-6: src IP, dst IP, src port, dst port,
// protocol, direction. V1 ends with the action at index 7. V2 and V3 read
// the action at 7, flow state at 8, and counters at 9-12. V4 moved the flow
// state to index 7 and carries no action at all, so the action is synthesized
// as Allow; its counters stay at 9-12.
func decodeTuple(version flowLogVersion, tuple string, base model.FlowRecord) model.FlowRecord {
	parts := strings.Split(tuple, ",")

	rec := base
	rec.SrcIP = tupleField(parts, 1)
	rec.DstIP = tupleField(parts, 2)
	rec.SrcPort = tupleField(parts, 3)
	rec.DstPort = tupleField(parts, 4)
	rec.Protocol = tupleField(parts, 5)
	rec.Direction = model.Direction(tupleField(parts, 6))

	switch version {
	case versionV1:
		rec.Action = model.Action(tupleField(parts, 7))
	case versionV2, versionV3:
		rec.Action = model.Action(tupleField(parts, 7))
		rec.State = model.FlowState(tupleField(parts, 8))
		rec.PacketsSrcToDst = tupleCounter(parts, 9)
		rec.BytesSrcToDst = tupleCounter(parts, 10)
		rec.PacketsDstToSrc = tupleCounter(parts, 11)
		rec.BytesDstToSrc = tupleCounter(parts, 12)
	case versionV4:
		rec.State = model.FlowState(tupleField(parts, 7))
		rec.Action = model.ActionAllow
		rec.PacketsSrcToDst = tupleCounter(parts, 9)
		rec.BytesSrcToDst = tupleCounter(parts, 10)
		rec.PacketsDstToSrc = tupleCounter(parts, 11)
		rec.BytesDstToSrc = tupleCounter(parts, 12)
	}
	return rec
}

// tupleField returns the field at index i, or "" when the tuple is too short.
func tupleField(parts []string, i int) string {
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}

// tupleCounter parses the counter at index i. Truncated tuples and
// non-numeric values both yield an absent counter.
func tupleCounter(parts []string, i int) *uint64 {
	if i >= len(parts) {
		return nil
	}
	value, err := strconv.ParseUint(parts[i], 10, 64)
	if err != nil {
		return nil
	}
	return &value
}
