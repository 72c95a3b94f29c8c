package runtime

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestIgnoreFilterForms(t *testing.T) {
	tests := []struct {
		name     string
		entries  []string
		family   string
		deviceId string
		want     bool
	}{
		{"device id", []string{"1234"}, "HUMI", "1234", true},
		{"family", []string{"HUMI"}, "HUMI", "1234", true},
		{"family and device", []string{"HUMI/1234"}, "HUMI", "1234", true},
		{"family and other device", []string{"HUMI/1234"}, "HUMI", "9999", false},
		{"other family same device", []string{"HUMI/1234"}, "TEMP", "1234", false},
		{"no entries", nil, "HUMI", "1234", false},
		{"blank entry ignored", []string{"  "}, "", "", false},
		{"surrounding spaces trimmed", []string{" Oregon "}, "Oregon", "0a1b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewIgnoreFilter(tt.entries...)
			assert.Equal(t, tt.want, f.IsIgnored(tt.family, tt.deviceId))
		})
	}
}

func TestIgnoreFilterNeverMutesSpecialControl(t *testing.T) {
	f := NewIgnoreFilter("PONG", "")
	assert.False(t, f.IgnoresEvent(DeviceEvent{Kind: SpecialControl, Payload: "PONG"}))
	assert.False(t, f.IgnoresCommand(DeviceCommand{Kind: SpecialControl, Payload: "PING"}))
}

func TestIgnoreFilterBothDirections(t *testing.T) {
	f := NewIgnoreFilter("NewKaku/00c142")
	assert.True(t, f.IgnoresEvent(DeviceEvent{Kind: Normal, Family: "NewKaku", DeviceID: "00c142", Parameter: "SWITCH"}))
	assert.True(t, f.IgnoresCommand(DeviceCommand{Kind: Normal, Family: "NewKaku", DeviceID: "00c142", Parameter: "1", Payload: "ON"}))
}

func TestIgnoreFilterNil(t *testing.T) {
	var f *IgnoreFilter
	assert.False(t, f.IsIgnored("HUMI", "1234"))
	assert.Nil(t, f.List())
}

func TestIgnoreFilterList(t *testing.T) {
	f := NewIgnoreFilter("b", "a", "a")
	assert.Equal(t, []string{"a", "b"}, f.List())
}
