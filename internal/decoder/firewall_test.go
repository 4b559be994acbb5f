package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowlog-analyzer/internal/model"
)

const testFirewallID = "/SUBSCRIPTIONS/S1/RESOURCEGROUPS/RG/PROVIDERS/MICROSOFT.NETWORK/AZUREFIREWALLS/TESTFW"

func TestDecodeFirewallNDJSON(t *testing.T) {
	payload := []byte(`{ "category": "AzureFirewallNetworkRule", "time": "2024-01-15T10:01:00.0000000Z", "resourceId": "` + testFirewallID + `", "properties": {"msg": "TCP request from 10.0.0.4:49158 to 8.8.8.8:443. Action: Deny"}}
{ "category": "AzureFirewallNetworkRule", "time": "2024-01-15T10:02:00.0000000Z", "resourceId": "` + testFirewallID + `", "properties": {"msg": "UDP request from 10.0.0.5:5353 to 1.1.1.1:53. Action: Allow"}}
not json at all
{ "category": "AzureFirewallNetworkRule", "time": "2024-01-15T10:03:00.0000000Z", "resourceId": "` + testFirewallID + `", "properties": {}}`)

	records, err := Decode(payload)
	require.NoError(t, err)
	require.Len(t, records, 2, "bad line and message-less entry are skipped")

	rec := records[0]
	assert.Equal(t, model.SourceFirewall, rec.Source)
	assert.Equal(t, "TESTFW", rec.Resource)
	assert.Equal(t, "T", rec.Protocol)
	assert.Equal(t, "10.0.0.4", rec.SrcIP)
	assert.Equal(t, "49158", rec.SrcPort)
	assert.Equal(t, "8.8.8.8", rec.DstIP)
	assert.Equal(t, "443", rec.DstPort)
	assert.Equal(t, model.ActionDeny, rec.Action)
	assert.Equal(t, model.DirectionUnknown, rec.Direction)
	assert.Equal(t, model.StateUnknown, rec.State)
	assert.False(t, rec.HasAllCounters())

	assert.Equal(t, model.ActionAllow, records[1].Action)
	assert.Equal(t, "U", records[1].Protocol)
}

func TestDecodeFirewallEntryArray(t *testing.T) {
	// Already-aggregated JSON arrays (no "records" key) are also firewall
	// payloads.
	payload := []byte(`[{"time": "2024-01-15T10:01:00Z", "resourceId": "` + testFirewallID + `",
		"properties": {"msg": "ICMP request from 10.0.0.4 to 8.8.8.8. Action: Allow"}}]`)

	records, err := Decode(payload)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "I", rec.Protocol)
	assert.Empty(t, rec.SrcPort, "ICMP flows have no ports")
	assert.Empty(t, rec.DstPort)
	assert.Equal(t, model.ActionAllow, rec.Action)
}

func TestFirewallPartialExtraction(t *testing.T) {
	payload := []byte(`[{"time": "2024-01-15T10:01:00Z", "resourceId": "` + testFirewallID + `",
		"properties": {"msg": "Unrecognized rule trace. Action: Deny"}}]`)

	records, err := Decode(payload)
	require.NoError(t, err)
	require.Len(t, records, 1, "a partially matching message still yields a record")

	rec := records[0]
	assert.Equal(t, model.ActionDeny, rec.Action)
	assert.Empty(t, rec.SrcIP)
	assert.Empty(t, rec.DstIP)
	assert.Empty(t, rec.Protocol)
}

func TestFirewallMessageWithoutAnyMatch(t *testing.T) {
	payload := []byte(`[{"time": "2024-01-15T10:01:00Z", "resourceId": "` + testFirewallID + `",
		"properties": {"msg": "totally freeform text"}}]`)

	records, err := Decode(payload)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ActionUnknown, records[0].Action)
}

func TestGarbagePayloadFails(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
