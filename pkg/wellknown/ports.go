package wellknown

// Common destination ports, used to annotate table output. Deliberately
// small; anything not listed renders without an annotation.
var serviceNames = map[string]string{
	"22":   "ssh",
	"23":   "telnet",
	"25":   "smtp",
	"53":   "dns",
	"80":   "http",
	"123":  "ntp",
	"135":  "msrpc",
	"389":  "ldap",
	"443":  "https",
	"445":  "smb",
	"1433": "mssql",
	"3306": "mysql",
	"3389": "rdp",
	"5432": "postgres",
	"5985": "winrm",
	"6379": "redis",
	"8080": "http-alt",
}

// ServiceName returns the conventional service name for a destination port,
// and whether one is known. Ports are matched as strings because flow tuples
// can carry non-numeric placeholders (ICMP flows have no port).
func ServiceName(port string) (string, bool) {
	name, ok := serviceNames[port]
	return name, ok
}
