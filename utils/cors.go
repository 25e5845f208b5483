package utils

import (
	"net"
	"net/url"
	"strings"
)

// privateNetworks covers RFC1918, loopback, and link-local ranges, v4 and v6.
var privateNetworks = buildNetworks(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

// IsAllowedOrigin checks whether an Origin header value should be trusted:
// localhost, private/link-local IPs, .local hostnames, and single-label LAN
// names pass; public internet origins are blocked. The aggregate view is meant
// for dashboards on the same network, not the open web.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostname := parsed.Hostname()
	if hostname == "localhost" {
		return true
	}
	if strings.HasSuffix(hostname, ".local") {
		return true
	}
	// No dots means a bare LAN hostname.
	if !strings.Contains(hostname, ".") {
		return true
	}

	if ip := net.ParseIP(hostname); ip != nil {
		for _, network := range privateNetworks {
			if network.Contains(ip) {
				return true
			}
		}
	}
	return false
}

func buildNetworks(cidrs ...string) []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		networks = append(networks, network)
	}
	return networks
}
