package wellknown

// AzureLoadBalancerIP is the virtual IP the Azure load balancer uses for
// health probes. Flows from this address are dropped by default.
const AzureLoadBalancerIP = "168.63.129.16"

// Storage container names used by the Azure diagnostics pipeline.
const (
	NSGFlowLogsContainer  = "insights-logs-networksecuritygroupflowevent"
	VNetFlowLogsContainer = "insights-logs-flowlogflowevent"
	FirewallLogsContainer = "insights-logs-azurefirewall"
)

// ProtocolName expands the single-letter protocol codes used in NSG flow
// tuples. Unrecognized codes (firewall free-text protocols among them) are
// returned as-is.
func ProtocolName(code string) string {
	switch code {
	case "T":
		return "TCP"
	case "U":
		return "UDP"
	case "I":
		return "ICMP"
	default:
		return code
	}
}
