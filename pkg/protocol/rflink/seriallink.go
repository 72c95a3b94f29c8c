package rflink

import (
	"bytes"
	"context"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
	rflinkruntime "rflinkgateway/pkg/protocol/rflink/runtime"
	"rflinkgateway/pkg/queue"
	"rflinkgateway/pkg/runtime"
	"time"
)

type Option func(*SerialLink)

func WithBaudRate(baudRate int) Option {
	return func(l *SerialLink) {
		l.mode.BaudRate = baudRate
	}
}

func WithReadTimeout(timeout time.Duration) Option {
	return func(l *SerialLink) {
		l.readTimeout = timeout
	}
}

func WithReconnectInterval(interval time.Duration) Option {
	return func(l *SerialLink) {
		l.reconnectInterval = interval
	}
}

// WithPassThrough names the report keys whose values are forwarded verbatim. The
// keys are added to the decoder of WithDecoder too, whatever the option order.
func WithPassThrough(keys ...string) Option {
	return func(l *SerialLink) {
		l.passThrough = append(l.passThrough, keys...)
	}
}

func WithDecoder(decoder *Decoder) Option {
	return func(l *SerialLink) {
		l.decoder = decoder
	}
}

func WithIgnoreFilter(filter *runtime.IgnoreFilter) Option {
	return func(l *SerialLink) {
		l.filter = filter
	}
}

func WithOpener(open OpenFunc) Option {
	return func(l *SerialLink) {
		l.open = open
	}
}

// SerialLink owns the serial connection to the RFLink gateway. It writes queued
// commands to the device and queues the events decoded from what the device reports.
type SerialLink struct {
	device            string
	mode              serial.Mode
	readTimeout       time.Duration
	reconnectInterval time.Duration
	decoder           *Decoder
	passThrough       []string
	filter            *runtime.IgnoreFilter
	commands          *queue.Queue[runtime.DeviceCommand]
	events            *queue.Queue[runtime.DeviceEvent]
	open              OpenFunc
	client            *SerialClient
	stats             runtime.LinkStats
}

func NewSerialLink(device string, commands *queue.Queue[runtime.DeviceCommand], events *queue.Queue[runtime.DeviceEvent], opts ...Option) *SerialLink {
	l := &SerialLink{
		device:            device,
		mode:              rflinkruntime.DefaultMode,
		readTimeout:       rflinkruntime.DefaultReadTimeout,
		reconnectInterval: rflinkruntime.DefaultReconnectInterval,
		decoder:           NewDecoder(),
		commands:          commands,
		events:            events,
		open:              OpenSerialPort,
	}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.passThrough) > 0 {
		l.decoder = l.decoder.WithPassThrough(l.passThrough...)
	}
	return l
}

// Run blocks until ctx is done. Every cycle writes at most one command and reads
// at most one chunk of input; the port read timeout bounds the idle wait.
func (l *SerialLink) Run(ctx context.Context) {
	klog.V(1).InfoS("Starting serial link", "device", l.device, "baudRate", l.mode.BaudRate)
	wait.UntilWithContext(ctx, l.cycle, 0)
	l.disconnect()
	l.stats.SetState(runtime.Stopped)
	klog.V(1).InfoS("Stopped serial link", "device", l.device)
}

func (l *SerialLink) cycle(ctx context.Context) {
	if l.client == nil {
		if err := l.connect(ctx); err != nil {
			return
		}
	}
	l.writeCommand()
	l.readFrames()
}

func (l *SerialLink) connect(ctx context.Context) error {
	l.stats.SetState(runtime.Connecting)
	err := wait.PollUntilContextCancel(ctx, l.reconnectInterval, true, func(ctx context.Context) (bool, error) {
		port, err := l.open(l.device, &l.mode)
		if err != nil {
			klog.V(2).InfoS("Failed to open serial port", "device", l.device, "error", err)
			return false, nil
		}
		client, err := NewSerialClient(port, l.readTimeout)
		if err != nil {
			klog.V(2).InfoS("Failed to configure serial port", "device", l.device, "error", err)
			port.Close()
			return false, nil
		}
		l.client = client
		return true, nil
	})
	if err != nil {
		return err
	}
	l.stats.SetState(runtime.Connected)
	klog.InfoS("Connected to serial port", "device", l.device)
	return nil
}

func (l *SerialLink) disconnect() {
	if l.client == nil {
		return
	}
	if err := l.client.Close(); err != nil {
		klog.V(2).InfoS("Failed to close serial port", "device", l.device, "error", err)
	}
	l.client = nil
}

func (l *SerialLink) writeCommand() {
	cmd, ok := l.commands.TryPop()
	if !ok {
		return
	}
	if l.filter.IgnoresCommand(cmd) {
		l.stats.Ignored.Inc()
		klog.V(2).InfoS("Ignored device command", "family", cmd.Family, "deviceId", cmd.DeviceID, "parameter", cmd.Parameter)
		return
	}
	frame, err := EncodeCommand(cmd)
	if err != nil {
		l.stats.Malformed.Inc()
		klog.V(2).InfoS("Failed to encode device command", "error", err)
		return
	}
	if err := l.client.WriteFrame(frame); err != nil {
		// commands are not retried, the device has no receipt channel
		l.stats.Failed.Inc()
		klog.V(2).InfoS("Failed to write device command", "device", l.device, "frame", frame, "error", err)
		return
	}
	l.stats.Sent.Inc()
	klog.V(4).InfoS("Wrote device command", "kind", cmd.Kind, "family", cmd.Family, "deviceId", cmd.DeviceID, "parameter", cmd.Parameter, "payload", cmd.Payload)
}

func (l *SerialLink) readFrames() {
	lines, err := l.client.ReadLines()
	for _, line := range lines {
		l.handleLine(line)
	}
	if err == nil {
		return
	}
	if errors.Is(err, rflinkruntime.ErrLineTooLong) {
		l.stats.Malformed.Inc()
		return
	}
	klog.ErrorS(err, "Lost serial port, reconnecting", "device", l.device)
	l.disconnect()
	l.stats.Reconnects.Inc()
	l.stats.SetState(runtime.Connecting)
}

func (l *SerialLink) handleLine(line []byte) {
	l.stats.Received.Inc()
	klog.V(5).InfoS("Read serial frame", "frame", string(bytes.TrimSpace(line)))

	events, err := l.decoder.Decode(line)
	if err != nil {
		l.stats.Malformed.Inc()
		klog.V(2).InfoS("Skipped malformed frame fields", "frame", string(bytes.TrimSpace(line)), "error", err)
	}
	accepted := make([]runtime.DeviceEvent, 0, len(events))
	for _, ev := range events {
		if l.filter.IgnoresEvent(ev) {
			l.stats.Ignored.Inc()
			klog.V(4).InfoS("Ignored device event", "family", ev.Family, "deviceId", ev.DeviceID, "parameter", ev.Parameter)
			continue
		}
		accepted = append(accepted, ev)
	}
	l.events.Push(accepted...)
	l.stats.Queued.Add(uint64(len(accepted)))
}

func (l *SerialLink) State() runtime.LinkState {
	return l.stats.State()
}

func (l *SerialLink) Status() runtime.LinkStatus {
	return l.stats.Snapshot("serial")
}
