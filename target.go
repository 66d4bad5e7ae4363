package portwatch

import (
	"net"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
)

// A scan target. The address is resolved exactly once, before the sweep.
// Local gates the process-correlation features: pids can only be read from
// the connection table of the scanning host itself.
type Target struct {
	Host  string `json:"host"`
	Addr  string `json:"addr"`
	Local bool   `json:"local"`
}

type Resolver interface {
	Resolve(host string) (Target, error)
}

type targetResolver struct {
	cache *expirable.LRU[string, Target]
}

func NewResolver() Resolver {
	cache := expirable.NewLRU[string, Target](256, nil, 5*time.Minute)
	return &targetResolver{cache: cache}
}

func (r *targetResolver) Resolve(host string) (Target, error) {
	if host == "" {
		host = "localhost"
	}

	if t, ok := r.cache.Get(host); ok {
		return t, nil
	}

	addr, err := resolveIPv4(host)
	if err != nil {
		return Target{}, errors.Wrapf(err, "failed to resolve target %s", host)
	}

	t := Target{Host: host, Addr: addr, Local: isLocalAddr(addr)}
	r.cache.Add(host, t)
	return t, nil
}

// Returns the first IPv4 address the host resolves to.
func resolveIPv4(host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), nil
		}
		return "", errors.New("IPv6 targets are not supported")
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", errors.Errorf("no IPv4 address found for %s", host)
}

// True when the address points back at the scanning host: loopback or an
// address bound to one of its interfaces.
func isLocalAddr(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}

	ifaddrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, ia := range ifaddrs {
		if ipnet, ok := ia.(*net.IPNet); ok && ipnet.IP.Equal(ip) {
			return true
		}
	}
	return false
}
