package rflink

import (
	"fmt"
	"github.com/pkg/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"
	rflinkruntime "rflinkgateway/pkg/protocol/rflink/runtime"
	"rflinkgateway/pkg/runtime"
	"strconv"
	"strings"
	"time"
	"unicode"
)

/**
RFLink serial frames, one per line, fields separated by ';'
  gateway -> host  20;<seq>;<family>;ID=<id>;<KEY>=<VALUE>;...;\r\n
  gateway -> host  20;<seq>;<text>;\r\n                  (control reply, e.g. PONG)
  gateway -> host  20;<seq>;VER=<v>;REV=<r>;BUILD=<b>;\r\n
  host -> gateway  10;<family>;<id>;<parameter>;<value>;\n
  host -> gateway  10;<control>;\n                       (e.g. PING, REBOOT)
A report whose sequence field is 00 is the gateway banner / acknowledgement.
*/

// Decoder turns serial frames into device events. The zero value is usable and
// decodes every value numerically.
type Decoder struct {
	passThrough sets.Set[string]
	now         func() time.Time
}

func NewDecoder(passThrough ...string) *Decoder {
	return &Decoder{
		passThrough: sets.New[string](passThrough...),
		now:         time.Now,
	}
}

// WithClock returns a copy of the decoder stamping events with now.
func (d *Decoder) WithClock(now func() time.Time) *Decoder {
	return &Decoder{passThrough: d.passThrough, now: now}
}

// WithPassThrough returns a copy of the decoder that also forwards keys verbatim.
func (d *Decoder) WithPassThrough(keys ...string) *Decoder {
	passThrough := sets.New[string](keys...)
	if d.passThrough != nil {
		passThrough = passThrough.Union(d.passThrough)
	}
	return &Decoder{passThrough: passThrough, now: d.now}
}

// Decode parses one frame. Malformed key/value pairs are skipped and reported in
// the returned aggregate error; the events decoded from the rest of the frame
// are returned regardless.
func (d *Decoder) Decode(raw []byte) ([]runtime.DeviceEvent, error) {
	fields := splitFrame(raw)
	if len(fields) > 1 && fields[1] == rflinkruntime.StatusSequence {
		klog.V(1).InfoS("Received gateway status", "message", strings.Join(fields[2:], rflinkruntime.FieldSeparator))
		return nil, nil
	}
	if len(fields) < 3 || fields[0] != rflinkruntime.ReportFrame {
		klog.V(5).InfoS("Discarded frame", "fields", fields)
		return nil, nil
	}

	timestamp := d.timestamp()
	isVersion := strings.HasPrefix(fields[2], rflinkruntime.VersionKey)
	if len(fields) > 3 && !isVersion {
		return d.decodeReport(fields, timestamp)
	}

	return []runtime.DeviceEvent{{
		Kind:      runtime.SpecialControl,
		Payload:   strings.Join(fields[2:], rflinkruntime.FieldSeparator),
		Timestamp: timestamp,
		QoS:       runtime.AtLeastOnce,
	}}, nil
}

func (d *Decoder) decodeReport(fields []string, timestamp time.Time) ([]runtime.DeviceEvent, error) {
	family := fields[2]
	_, deviceId, found := strings.Cut(fields[3], rflinkruntime.KeyValueSep)
	if !found || len(family) == 0 || len(deviceId) == 0 {
		return nil, errors.Wrapf(rflinkruntime.ErrMalformedFrame, "family %q, id field %q", family, fields[3])
	}

	events := make([]runtime.DeviceEvent, 0, len(fields)-4)
	var errs []error
	for _, field := range fields[4:] {
		key, value, found := strings.Cut(field, rflinkruntime.KeyValueSep)
		if !found || len(key) == 0 {
			errs = append(errs, errors.Wrapf(rflinkruntime.ErrMalformedField, "field %q", field))
			continue
		}

		payload := value
		if !d.passThrough.Has(key) {
			v, err := SignedHex16(value)
			if err != nil {
				errs = append(errs, errors.Wrapf(err, "key %s", key))
				continue
			}
			payload = FormatDecimal(float64(v) / 10.0)
		}
		events = append(events, runtime.DeviceEvent{
			Kind:      runtime.Normal,
			Family:    family,
			DeviceID:  deviceId,
			Parameter: key,
			Payload:   payload,
			Timestamp: timestamp,
			QoS:       runtime.AtLeastOnce,
		})
	}
	return events, utilerrors.NewAggregate(errs)
}

func (d *Decoder) timestamp() time.Time {
	if d.now == nil {
		return time.Now()
	}
	return d.now()
}

// DecodeFrame decodes raw with a one-off decoder, see Decoder.Decode.
func DecodeFrame(raw []byte, passThrough ...string) ([]runtime.DeviceEvent, error) {
	return NewDecoder(passThrough...).Decode(raw)
}

func splitFrame(raw []byte) []string {
	line := strings.TrimRightFunc(string(raw), unicode.IsSpace)
	line = strings.TrimSuffix(line, rflinkruntime.FieldSeparator)
	if len(line) == 0 {
		return nil
	}
	return strings.Split(line, rflinkruntime.FieldSeparator)
}

// SignedHex16 decodes the RFLink signed 16 bit hex notation. Values with the high
// bit set carry a negative magnitude of value-0x8000; this is not two's complement.
func SignedHex16(value string) (int, error) {
	v, err := strconv.ParseUint(value, 16, 16)
	if err != nil {
		return 0, errors.Wrapf(rflinkruntime.ErrMalformedField, "hex value %q", value)
	}
	if v >= 0x8000 {
		return -int(v - 0x8000), nil
	}
	return int(v), nil
}

// FormatDecimal renders v with the shortest exact representation, always keeping
// one fractional digit ("25.0", "-2.6").
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// EncodeCommand renders cmd as a serial frame, including the line delimiter.
func EncodeCommand(cmd runtime.DeviceCommand) (string, error) {
	switch cmd.Kind {
	case runtime.SpecialControl:
		if len(cmd.Payload) == 0 {
			return "", errors.Wrap(rflinkruntime.ErrIncompleteCommand, "special control command without payload")
		}
		return fmt.Sprintf("%s;%s;\n", rflinkruntime.CommandFrame, cmd.Payload), nil
	default:
		if len(cmd.Family) == 0 || len(cmd.DeviceID) == 0 || len(cmd.Parameter) == 0 {
			return "", errors.Wrapf(rflinkruntime.ErrIncompleteCommand, "family %q, device %q, parameter %q", cmd.Family, cmd.DeviceID, cmd.Parameter)
		}
		return fmt.Sprintf("%s;%s;%s;%s;%s;\n", rflinkruntime.CommandFrame, cmd.Family, cmd.DeviceID, cmd.Parameter, cmd.Payload), nil
	}
}
