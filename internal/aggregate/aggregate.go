// Package aggregate folds the per-flow counters of a record set into four
// totals. Absent counters contribute zero.
package aggregate

import "flowlog-analyzer/internal/model"

// Sum reduces a record slice to its counter totals. Sum is linear: summing
// two disjoint slices and adding the results equals summing their union.
func Sum(records []model.FlowRecord) model.Totals {
	var totals model.Totals
	for i := range records {
		rec := &records[i]
		if rec.PacketsSrcToDst != nil {
			totals.PacketsSrcToDst += *rec.PacketsSrcToDst
		}
		if rec.BytesSrcToDst != nil {
			totals.BytesSrcToDst += *rec.BytesSrcToDst
		}
		if rec.PacketsDstToSrc != nil {
			totals.PacketsDstToSrc += *rec.PacketsDstToSrc
		}
		if rec.BytesDstToSrc != nil {
			totals.BytesDstToSrc += *rec.BytesDstToSrc
		}
	}
	return totals
}
