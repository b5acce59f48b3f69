// Package hostcheck gates execution on the configured host: the CLI's
// --host flag refuses to run unless the process's hostname or one of its
// non-loopback IPv4 addresses matches, or the flag is "*".
package hostcheck

import (
	"fmt"
	"net"
	"os"
)

// Identity is the local machine facts a check is evaluated against,
// isolated behind this type so tests can inject a fixed hostname/address
// list instead of reading the real host.
type Identity struct {
	Hostname  string
	Addresses []string // non-loopback IPv4, dotted-quad
}

// LocalIdentity reads the real hostname and non-loopback IPv4 interface
// addresses.
func LocalIdentity() (Identity, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Identity{}, fmt.Errorf("get hostname: %w", err)
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return Identity{}, fmt.Errorf("get interface addresses: %w", err)
	}

	var ipv4 []string
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil || ip4.IsLoopback() {
			continue
		}
		ipv4 = append(ipv4, ip4.String())
	}

	return Identity{Hostname: hostname, Addresses: ipv4}, nil
}

// Check reports an error unless configured is empty, is "*", or matches id's
// hostname or one of its addresses.
func Check(configured string, id Identity) error {
	if configured == "" || configured == "*" {
		return nil
	}
	if configured == id.Hostname {
		return nil
	}
	for _, a := range id.Addresses {
		if configured == a {
			return nil
		}
	}
	return fmt.Errorf("host %q does not match configured host %q", id.Hostname, configured)
}
