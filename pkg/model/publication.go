package model

import "time"

// DefaultTTL is the TTL used for replies when none is configured.
const DefaultTTL uint8 = 7

// Retransmit describes how often a published message is repeated.
type Retransmit struct {
	Count    uint8
	Interval time.Duration
}

// Publication is the publish configuration of a model.
// The zero value is an unconfigured publication.
type Publication struct {
	Address     Address
	AppKeyIndex uint16
	TTL         uint8
	Retransmit  Retransmit
	Period      time.Duration
}

// Configured reports whether the publication has a destination.
func (p Publication) Configured() bool {
	return !p.Address.IsUnassigned()
}

// WithOverride returns a copy of p with the destination, TTL and retransmit
// replaced. The app key index and period are kept.
func (p Publication) WithOverride(addr Address, ttl uint8, rt Retransmit) Publication {
	p.Address = addr
	p.TTL = ttl
	p.Retransmit = rt
	return p
}
