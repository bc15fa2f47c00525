package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Service constants.
const (
	ServiceTypeMQTT = "_mqtt._tcp"
	Domain          = "local."

	// BrowseTimeout bounds a browse when the caller sets none.
	BrowseTimeout = 10 * time.Second

	TXTKeyScheme  = "scheme"
	DefaultScheme = "tcp"
)

// ErrNotFound is returned when no broker answered before the timeout.
var ErrNotFound = errors.New("discovery: no mqtt broker found")

// BrowseFunc browses service in domain, sending resolved instances on
// entries and expired ones on removed until ctx is done.
type BrowseFunc func(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error

func zeroconfBrowse(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error {
	return zeroconf.Browse(ctx, service, domain, entries, removed, opts...)
}

// BrowserConfig configures BrowseBroker.
type BrowserConfig struct {
	// Timeout defaults to BrowseTimeout.
	Timeout time.Duration

	// Interface restricts browsing to one network interface.
	// Empty means all interfaces.
	Interface string

	// Browse defaults to a zeroconf browse. Set it in tests.
	Browse BrowseFunc

	Logger *slog.Logger
}

// ServiceEntry is a resolved service instance.
type ServiceEntry struct {
	Instance string
	Service  string
	Domain   string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

// BrokerURL returns the broker URL of the entry, e.g. tcp://10.0.0.2:1883.
func (e *ServiceEntry) BrokerURL() (string, error) {
	if len(e.Addrs) == 0 {
		return "", fmt.Errorf("%s: no address", e.Instance)
	}
	if e.Port == 0 {
		return "", fmt.Errorf("%s: no port", e.Instance)
	}
	scheme := DefaultScheme
	if s, ok := TXTRecords(e.Text)[TXTKeyScheme]; ok && s != "" {
		scheme = strings.ToLower(s)
	}
	hostPort := net.JoinHostPort(e.Addrs[0], strconv.Itoa(int(e.Port)))
	return scheme + "://" + hostPort, nil
}

// BrowseBroker browses for an MQTT broker and returns the URL of the first
// one found.
func BrowseBroker(ctx context.Context, cfg BrowserConfig) (string, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = BrowseTimeout
	}
	browse := cfg.Browse
	if browse == nil {
		browse = zeroconfBrowse
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	go func() {
		if err := browse(ctx, ServiceTypeMQTT, Domain, entries, removed, clientOptions(cfg)...); err != nil && cfg.Logger != nil {
			cfg.Logger.Debug("mdns browse ended", "error", err)
		}
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNotFound
			}
			e := fromZeroconf(entry)
			url, err := e.BrokerURL()
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Debug("skipping broker entry", "instance", e.Instance, "reason", err.Error())
				}
				continue
			}
			if cfg.Logger != nil {
				cfg.Logger.Info("mqtt broker found", "instance", e.Instance, "url", url)
			}
			return url, nil
		case <-removed:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", ErrNotFound
			}
			return "", ctx.Err()
		}
	}
}

func clientOptions(cfg BrowserConfig) []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if cfg.Interface != "" {
		iface, err := net.InterfaceByName(cfg.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

func fromZeroconf(entry *zeroconf.ServiceEntry) *ServiceEntry {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return &ServiceEntry{
		Instance: entry.Instance,
		Service:  entry.Service,
		Domain:   entry.Domain,
		Host:     entry.HostName,
		Port:     uint16(entry.Port),
		Text:     entry.Text,
		Addrs:    addrs,
	}
}

// TXTRecords splits key=value TXT strings. A key without a value maps to
// the empty string.
func TXTRecords(strs []string) map[string]string {
	txt := make(map[string]string, len(strs))
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}
