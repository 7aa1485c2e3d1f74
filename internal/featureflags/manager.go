// Package featureflags evaluates simple config-driven feature flags.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "trending_cache=on,notification_publish=25%"
type Manager struct {
	flags map[string]string
}

// Flags used by the application.
const (
	// TrendingCache gates cache-aside reads for hot/trending endpoints.
	TrendingCache = "trending_cache"
	// NotificationPublish gates Redis publication of created notifications.
	NotificationPublish = "notification_publish"
)

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value := normalize(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if strings.HasSuffix(value, "%") {
		pctRaw := strings.TrimSuffix(value, "%")
		pct, err := strconv.Atoi(pctRaw)
		if err != nil {
			return false
		}
		if pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		return bucket(name, userID) < uint32(pct)
	}

	return false
}

// EnabledGlobally returns whether a flag is on independent of any user.
func (m *Manager) EnabledGlobally(name string) bool {
	return m.Enabled(name, 0)
}

// bucket deterministically maps (flag, user) into [0, 100).
func bucket(name string, userID uint) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return h.Sum32() % 100
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
