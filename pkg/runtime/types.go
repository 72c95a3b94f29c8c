package runtime

import (
	"time"
)

// Kind tells a device-addressed message apart from a gateway-level control message.
type Kind uint8

const (
	Normal Kind = iota
	SpecialControl
)

var KindToString = map[Kind]string{
	Normal:         "normal",
	SpecialControl: "special",
}

var StringToKind = map[string]Kind{
	"normal":  Normal,
	"special": SpecialControl,
}

func (k Kind) String() string {
	if s, ok := KindToString[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// AtLeastOnce is the MQTT quality of service every report is published with.
const AtLeastOnce byte = 1

// DeviceEvent is a report decoded from a serial frame, on its way to the broker.
type DeviceEvent struct {
	Kind      Kind      `json:"kind"`
	Family    string    `json:"family,omitempty"`
	DeviceID  string    `json:"deviceId,omitempty"`
	Parameter string    `json:"parameter,omitempty"`
	Payload   string    `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
	QoS       byte      `json:"qos"`
}

// DeviceCommand is a write request decoded from a topic message, on its way to the serial device.
type DeviceCommand struct {
	Kind      Kind   `json:"kind"`
	Family    string `json:"family,omitempty"`
	DeviceID  string `json:"deviceId,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Payload   string `json:"payload"`
}
