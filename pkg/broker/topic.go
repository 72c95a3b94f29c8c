package broker

import (
	"github.com/pkg/errors"
	"rflinkgateway/pkg/runtime"
	"strings"
)

// TopicCodec maps device events and commands onto the topic tree
//
//	<prefix>/<family>/<deviceId>/R/<parameter>   reports published by the gateway
//	<prefix>/<family>/<deviceId>/W/<parameter>   writes the gateway subscribes to
type TopicCodec struct {
	prefix string
}

func NewTopicCodec(prefix string) *TopicCodec {
	return &TopicCodec{prefix: strings.TrimSuffix(prefix, topicSeparator)}
}

func (c *TopicCodec) Prefix() string {
	return c.prefix
}

func (c *TopicCodec) SubscriptionPattern() string {
	return c.join(singleLevel, singleLevel, WriteDirection, singleLevel)
}

func (c *TopicCodec) ReportTopic(family, deviceId, parameter string) string {
	return c.join(family, deviceId, ReportDirection, parameter)
}

func (c *TopicCodec) WriteTopic(family, deviceId, parameter string) string {
	return c.join(family, deviceId, WriteDirection, parameter)
}

// Decode turns a message received on a write topic into a device command. The
// direction segment is left to the subscription pattern and is not checked.
func (c *TopicCodec) Decode(topic string, payload []byte) (runtime.DeviceCommand, error) {
	rest, ok := strings.CutPrefix(topic, c.prefix+topicSeparator)
	if !ok {
		return runtime.DeviceCommand{}, errors.Wrapf(ErrMalformedTopic, "topic %q outside prefix %q", topic, c.prefix)
	}
	segments := strings.Split(rest, topicSeparator)
	if len(segments) != 4 {
		return runtime.DeviceCommand{}, errors.Wrapf(ErrMalformedTopic, "topic %q has %d segments after prefix", topic, len(segments))
	}
	return runtime.DeviceCommand{
		Kind:      runtime.Normal,
		Family:    segments[0],
		DeviceID:  segments[1],
		Parameter: segments[3],
		Payload:   string(payload),
	}, nil
}

// Encode returns the report topic, payload and publish QoS of ev. Special control
// events carry no device address and land on <prefix>///R/.
func (c *TopicCodec) Encode(ev runtime.DeviceEvent) (string, []byte, byte) {
	return c.ReportTopic(ev.Family, ev.DeviceID, ev.Parameter), []byte(ev.Payload), ev.QoS
}

func (c *TopicCodec) join(family, deviceId, direction, parameter string) string {
	return strings.Join([]string{c.prefix, family, deviceId, direction, parameter}, topicSeparator)
}

// ValidPrefix reports whether prefix can be used as a topic root.
func ValidPrefix(prefix string) bool {
	p := strings.TrimSuffix(prefix, topicSeparator)
	return len(p) > 0 && !strings.ContainsAny(p, singleLevel+multiLevel)
}
