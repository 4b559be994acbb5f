package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flowlog-analyzer/internal/model"
)

func counter(v uint64) *uint64 { return &v }

func TestSumAllCountersAbsent(t *testing.T) {
	records := []model.FlowRecord{
		{Source: model.SourceNSG},
		{Source: model.SourceFirewall},
	}
	assert.Equal(t, model.Totals{}, Sum(records))
}

func TestSumEmptySet(t *testing.T) {
	assert.Equal(t, model.Totals{}, Sum(nil))
}

func TestSumMixedPresence(t *testing.T) {
	records := []model.FlowRecord{
		{
			PacketsSrcToDst: counter(10),
			BytesSrcToDst:   counter(1000),
			PacketsDstToSrc: counter(5),
			BytesDstToSrc:   counter(500),
		},
		{
			// Truncated tuple: only the forward counters survived.
			PacketsSrcToDst: counter(3),
			BytesSrcToDst:   counter(300),
		},
		{}, // no counters at all
	}

	totals := Sum(records)
	assert.Equal(t, uint64(13), totals.PacketsSrcToDst)
	assert.Equal(t, uint64(1300), totals.BytesSrcToDst)
	assert.Equal(t, uint64(5), totals.PacketsDstToSrc)
	assert.Equal(t, uint64(500), totals.BytesDstToSrc)
}

// Sum over a disjoint union equals the sum of the parts.
func TestSumIsLinear(t *testing.T) {
	a := []model.FlowRecord{
		{PacketsSrcToDst: counter(1), BytesSrcToDst: counter(100)},
		{PacketsDstToSrc: counter(2), BytesDstToSrc: counter(200)},
	}
	b := []model.FlowRecord{
		{PacketsSrcToDst: counter(7), BytesDstToSrc: counter(70)},
	}

	union := append(append([]model.FlowRecord{}, a...), b...)
	partial := Sum(a)
	partial.Add(Sum(b))
	assert.Equal(t, Sum(union), partial)
}
