package runtime

import (
	"k8s.io/apimachinery/pkg/util/sets"
	"sort"
	"strings"
)

// IgnoreFilter mutes devices on both directions of the gateway. An entry is either a
// device id, a family, or "family/deviceId".
type IgnoreFilter struct {
	ignored sets.Set[string]
}

func NewIgnoreFilter(entries ...string) *IgnoreFilter {
	ignored := sets.New[string]()
	for _, entry := range entries {
		if e := strings.TrimSpace(entry); len(e) > 0 {
			ignored.Insert(e)
		}
	}
	return &IgnoreFilter{ignored: ignored}
}

func (f *IgnoreFilter) IsIgnored(family, deviceId string) bool {
	if f == nil || f.ignored.Len() == 0 {
		return false
	}
	if len(deviceId) > 0 && f.ignored.Has(deviceId) {
		return true
	}
	if len(family) > 0 && f.ignored.Has(family) {
		return true
	}
	if len(family) > 0 && len(deviceId) > 0 {
		return f.ignored.Has(family + "/" + deviceId)
	}
	return false
}

// IgnoresEvent reports whether ev must be dropped before reaching the broker.
// Special control events are never filtered.
func (f *IgnoreFilter) IgnoresEvent(ev DeviceEvent) bool {
	return ev.Kind == Normal && f.IsIgnored(ev.Family, ev.DeviceID)
}

// IgnoresCommand reports whether cmd must be dropped before reaching the device.
func (f *IgnoreFilter) IgnoresCommand(cmd DeviceCommand) bool {
	return cmd.Kind == Normal && f.IsIgnored(cmd.Family, cmd.DeviceID)
}

func (f *IgnoreFilter) List() []string {
	if f == nil {
		return nil
	}
	l := f.ignored.UnsortedList()
	sort.Strings(l)
	return l
}
