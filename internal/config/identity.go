package config

import (
	"os"
	"strings"
)

// hostname is swapped in tests.
var hostname = os.Hostname

// Identity names this process in logs and in the whoami endpoint.
type Identity struct {
	Hostname   string
	InstanceID string
}

// ResolveIdentity reads the machine host name once. instanceID falls back to
// the host name when empty.
func ResolveIdentity(instanceID string) Identity {
	host, err := hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	id := strings.TrimSpace(instanceID)
	if id == "" {
		id = host
	}
	return Identity{Hostname: host, InstanceID: id}
}
