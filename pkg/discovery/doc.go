// Package discovery finds the MQTT broker of the gateway bridge with
// mDNS/DNS-SD.
//
// Brokers advertise _mqtt._tcp in the local domain. An instance may carry
// TXT records:
//
//	scheme=<tcp|ssl|ws>   URL scheme, default tcp
//
// The first instance that resolves to at least one address wins. IPv4
// addresses are preferred over IPv6.
package discovery
