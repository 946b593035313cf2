package partition

import (
	"errors"
	"fmt"
	"strings"

	"clashlb/launcher/pkg/clash"
)

// Fallback group policy shared by every instance.
const (
	GroupName       = "defaults"
	HealthCheckURL  = "http://www.gstatic.com/generate_204"
	IntervalSeconds = 300
)

// ErrEmptySelection is returned when the name prefix matches no proxy.
var ErrEmptySelection = errors.New("no proxies match the name prefix")

// Bucket is one unit of work for the materializer: the proxy an instance
// will carry and the fallback group that routes to it.
type Bucket struct {
	Index int
	Proxy clash.Proxy
	Group clash.ProxyGroup
}

// Select returns the proxies whose names start with prefix, in their
// original order. An empty prefix selects every proxy.
func Select(proxies []clash.Proxy, prefix string) []clash.Proxy {
	selected := make([]clash.Proxy, 0, len(proxies))
	for _, p := range proxies {
		if strings.HasPrefix(p.Name, prefix) {
			selected = append(selected, p)
		}
	}
	return selected
}

// FallbackGroup returns the single-member group for proxyName.
func FallbackGroup(proxyName string) clash.ProxyGroup {
	return clash.ProxyGroup{
		Name:     GroupName,
		Type:     clash.GroupTypeFallback,
		URL:      HealthCheckURL,
		Interval: IntervalSeconds,
		Proxies:  []string{proxyName},
	}
}

// Partition selects the proxies matching prefix and derives one bucket per
// proxy. It fails with ErrEmptySelection rather than returning no buckets.
func Partition(proxies []clash.Proxy, prefix string) ([]Bucket, error) {
	selected := Select(proxies, prefix)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w %q (%d proxies available)", ErrEmptySelection, prefix, len(proxies))
	}

	buckets := make([]Bucket, len(selected))
	for i, p := range selected {
		buckets[i] = Bucket{
			Index: i,
			Proxy: p.Clone(),
			Group: FallbackGroup(p.Name),
		}
	}
	return buckets, nil
}
