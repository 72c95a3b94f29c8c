package broker

import (
	"context"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
	"rflinkgateway/pkg/queue"
	"rflinkgateway/pkg/runtime"
	"time"
)

type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

type Option func(*MqttLink)

// WithCredentials is a no-op for an empty username, the broker then sees an anonymous client.
func WithCredentials(username, password string) Option {
	return func(l *MqttLink) {
		l.username = username
		l.password = password
	}
}

func WithClientID(clientID string) Option {
	return func(l *MqttLink) {
		if len(clientID) > 0 {
			l.clientID = clientID
		}
	}
}

func WithKeepAlive(keepAlive time.Duration) Option {
	return func(l *MqttLink) {
		l.keepAlive = keepAlive
	}
}

func WithPublishTimeout(timeout time.Duration) Option {
	return func(l *MqttLink) {
		l.publishTimeout = timeout
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(l *MqttLink) {
		l.retryInterval = interval
	}
}

func WithClientFactory(factory ClientFactory) Option {
	return func(l *MqttLink) {
		l.newClient = factory
	}
}

// MqttLink owns the broker connection. It publishes queued device events and
// queues the commands received on the write topics.
type MqttLink struct {
	broker         string
	clientID       string
	username       string
	password       string
	keepAlive      time.Duration
	publishTimeout time.Duration
	retryInterval  time.Duration
	codec          *TopicCodec
	commands       *queue.Queue[runtime.DeviceCommand]
	events         *queue.Queue[runtime.DeviceEvent]
	newClient      ClientFactory
	client         mqtt.Client
	stats          runtime.LinkStats
}

func NewMqttLink(broker string, codec *TopicCodec, commands *queue.Queue[runtime.DeviceCommand], events *queue.Queue[runtime.DeviceEvent], opts ...Option) *MqttLink {
	routePahoLogs()
	l := &MqttLink{
		broker:         broker,
		clientID:       DefaultClientID,
		keepAlive:      DefaultKeepAlive,
		publishTimeout: DefaultPublishTimeout,
		retryInterval:  DefaultRetryInterval,
		codec:          codec,
		commands:       commands,
		events:         events,
		newClient:      mqtt.NewClient,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MqttLink) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(l.broker).
		SetClientID(l.clientID).
		SetKeepAlive(l.keepAlive).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(l.retryInterval).
		SetOnConnectHandler(l.onConnect).
		SetConnectionLostHandler(l.onConnectionLost).
		SetReconnectingHandler(l.onReconnecting)
	if len(l.username) > 0 {
		opts.SetUsername(l.username)
		opts.SetPassword(l.password)
	}
	return opts
}

// Run blocks until ctx is done, then disconnects from the broker.
func (l *MqttLink) Run(ctx context.Context) {
	klog.V(1).InfoS("Starting mqtt link", "broker", l.broker, "clientId", l.clientID, "prefix", l.codec.Prefix())
	l.client = l.newClient(l.clientOptions())
	if err := l.connect(ctx); err == nil {
		wait.UntilWithContext(ctx, l.cycle, 0)
	}
	l.client.Disconnect(disconnectQuiesce)
	l.stats.SetState(runtime.Stopped)
	klog.V(1).InfoS("Stopped mqtt link", "broker", l.broker)
}

// connect retries the initial connection every retryInterval until it succeeds or
// ctx is done. Later drops are handled by paho's auto reconnect.
func (l *MqttLink) connect(ctx context.Context) error {
	l.stats.SetState(runtime.Connecting)
	return wait.PollUntilContextCancel(ctx, l.retryInterval, true, func(ctx context.Context) (bool, error) {
		token := l.client.Connect()
		select {
		case <-token.Done():
		case <-ctx.Done():
			return false, ctx.Err()
		}
		if err := token.Error(); err != nil {
			klog.V(2).InfoS("Failed to connect mqtt broker", "broker", l.broker, "error", err)
			return false, nil
		}
		return true, nil
	})
}

func (l *MqttLink) cycle(ctx context.Context) {
	ev, err := l.events.Pop(ctx)
	if err != nil {
		return
	}
	l.publish(ctx, ev)
}

func (l *MqttLink) publish(ctx context.Context, ev runtime.DeviceEvent) {
	topic, payload, qos := l.codec.Encode(ev)
	token := l.client.Publish(topic, qos, false, payload)
	if token.WaitTimeout(l.publishTimeout) && token.Error() == nil {
		l.stats.Sent.Inc()
		klog.V(4).InfoS("Succeed to publish MQTT", "topic", topic, "payload", ev.Payload)
		return
	}

	err := token.Error()
	if err == nil {
		err = errors.Errorf("no acknowledgement within %s", l.publishTimeout)
	}
	l.stats.Failed.Inc()
	klog.V(2).InfoS("Failed to publish MQTT, requeueing event", "topic", topic, "error", err)
	// requeued at the tail: later events may overtake this one
	l.events.Push(ev)

	select {
	case <-ctx.Done():
	case <-time.After(l.retryInterval):
	}
}

func (l *MqttLink) onConnect(c mqtt.Client) {
	l.stats.SetState(runtime.Connected)
	klog.InfoS("Connected to mqtt broker", "broker", l.broker)

	topic := l.codec.SubscriptionPattern()
	token := c.Subscribe(topic, runtime.AtLeastOnce, l.onMessage)
	if token.WaitTimeout(l.publishTimeout) && token.Error() == nil {
		klog.V(1).InfoS("Subscribed to write topics", "topic", topic)
		return
	}
	klog.ErrorS(token.Error(), "Failed to subscribe to write topics", "topic", topic)
}

func (l *MqttLink) onConnectionLost(_ mqtt.Client, err error) {
	l.stats.SetState(runtime.Reconnecting)
	l.stats.Reconnects.Inc()
	klog.ErrorS(err, "Lost connection to mqtt broker, reconnecting", "broker", l.broker)
}

func (l *MqttLink) onReconnecting(_ mqtt.Client, _ *mqtt.ClientOptions) {
	klog.V(2).InfoS("Reconnecting to mqtt broker", "broker", l.broker)
}

func (l *MqttLink) onMessage(_ mqtt.Client, msg mqtt.Message) {
	l.stats.Received.Inc()
	cmd, err := l.codec.Decode(msg.Topic(), msg.Payload())
	if err != nil {
		l.stats.Malformed.Inc()
		klog.V(2).InfoS("Dropped message on unexpected topic", "topic", msg.Topic(), "error", err)
		return
	}
	l.commands.Push(cmd)
	l.stats.Queued.Inc()
	klog.V(4).InfoS("Received device command", "family", cmd.Family, "deviceId", cmd.DeviceID, "parameter", cmd.Parameter, "payload", cmd.Payload)
}

func (l *MqttLink) State() runtime.LinkState {
	return l.stats.State()
}

func (l *MqttLink) Status() runtime.LinkStatus {
	return l.stats.Snapshot("mqtt")
}
