package options

import (
	"fmt"
	"github.com/spf13/pflag"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"net"
	"rflinkgateway/cmd/gateway/config"
	"rflinkgateway/pkg/broker"
	"rflinkgateway/pkg/gateway"
	baseoptions "rflinkgateway/pkg/generic/options"
	"rflinkgateway/pkg/protocol/rflink"
	rflinkruntime "rflinkgateway/pkg/protocol/rflink/runtime"
	"rflinkgateway/pkg/queue"
	"rflinkgateway/pkg/runtime"
	"rflinkgateway/pkg/storage"
	"strconv"
	"time"
)

type MqttOptions struct {
	Host           string          `json:"host"`
	Port           int             `json:"port"`
	Username       string          `json:"username,omitempty"`
	Password       string          `json:"password,omitempty"`
	ClientID       string          `json:"clientId"`
	Prefix         string          `json:"prefix"`
	KeepAlive      metav1.Duration `json:"keepAlive"`
	PublishTimeout metav1.Duration `json:"publishTimeout"`
	RetryInterval  metav1.Duration `json:"retryInterval"`
}

type SerialOptions struct {
	Device            string          `json:"device"`
	BaudRate          int             `json:"baudRate"`
	ReadTimeout       metav1.Duration `json:"readTimeout"`
	ReconnectInterval metav1.Duration `json:"reconnectInterval"`
}

type Options struct {
	Name     string          `json:"name"`
	Port     string          `json:"port"`
	Wait     metav1.Duration `json:"graceful-timeout"`
	CertFile string          `json:"tlsCertFile,omitempty"`
	KeyFile  string          `json:"tlsPrivateKeyFile,omitempty"`
	// DataDir keeps the gateway id across restarts, empty keeps nothing.
	DataDir string `json:"dataDir,omitempty"`

	Mqtt   MqttOptions   `json:"mqtt"`
	Serial SerialOptions `json:"serial"`
	// DirectOutputParams are report keys forwarded verbatim instead of decoded as signed hex.
	DirectOutputParams []string `json:"directOutputParams"`
	// IgnoredDevices entries are a device id, a family or "family/deviceId".
	IgnoredDevices []string `json:"ignoredDevices"`
	baseoptions.BaseOptions
}

const (
	_defaultPort       = "32200"
	_defaultWait       = 15 * time.Second
	_defaultMqttHost   = "localhost"
	_defaultMqttPort   = 1883
	_defaultPrefix     = "rflink"
	_defaultSerialPath = "/dev/ttyACM0"
)

func NewDefaultOptions() *Options {
	return &Options{
		Port: _defaultPort,
		Wait: metav1.Duration{Duration: _defaultWait},
		Mqtt: MqttOptions{
			Host:           _defaultMqttHost,
			Port:           _defaultMqttPort,
			ClientID:       broker.DefaultClientID,
			Prefix:         _defaultPrefix,
			KeepAlive:      metav1.Duration{Duration: broker.DefaultKeepAlive},
			PublishTimeout: metav1.Duration{Duration: broker.DefaultPublishTimeout},
			RetryInterval:  metav1.Duration{Duration: broker.DefaultRetryInterval},
		},
		Serial: SerialOptions{
			Device:            _defaultSerialPath,
			BaudRate:          rflinkruntime.DefaultBaudRate,
			ReadTimeout:       metav1.Duration{Duration: rflinkruntime.DefaultReadTimeout},
			ReconnectInterval: metav1.Duration{Duration: rflinkruntime.DefaultReconnectInterval},
		},
		DirectOutputParams: []string{},
		IgnoredDevices:     []string{},
		BaseOptions:        baseoptions.NewDefaultBaseOptions(),
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Name, "name", o.Name, "Name reported by the gateway meta endpoint")
	fs.StringVarP(&o.Port, "port", "P", o.Port, "Port of the HTTP API, empty disables it")
	fs.DurationVar(&o.Wait.Duration, "graceful-timeout", o.Wait.Duration, "The duration for which the server gracefully wait for existing connections to finish - e.g. 15s or 1m")
	fs.StringVar(&o.DataDir, "data-dir", o.DataDir, "Directory keeping the gateway id across restarts, empty generates a new id on every start")
	fs.StringVar(&o.CertFile, "tls-cert-file", o.CertFile, "File containing the x509 certificate for HTTPS")
	fs.StringVar(&o.KeyFile, "tls-private-key-file", o.KeyFile, "File containing the x509 private key matching --tls-cert-file")

	fs.StringVar(&o.Mqtt.Host, "mqtt-host", o.Mqtt.Host, "MQTT broker host")
	fs.IntVar(&o.Mqtt.Port, "mqtt-port", o.Mqtt.Port, "MQTT broker port")
	fs.StringVar(&o.Mqtt.Username, "mqtt-username", o.Mqtt.Username, "MQTT username, anonymous when empty")
	fs.StringVar(&o.Mqtt.Password, "mqtt-password", o.Mqtt.Password, "MQTT password")
	fs.StringVar(&o.Mqtt.ClientID, "mqtt-client-id", o.Mqtt.ClientID, "MQTT client id")
	fs.StringVar(&o.Mqtt.Prefix, "mqtt-prefix", o.Mqtt.Prefix, "Topic prefix, reports go to <prefix>/<family>/<deviceId>/R/<parameter>")
	fs.DurationVar(&o.Mqtt.KeepAlive.Duration, "mqtt-keepalive", o.Mqtt.KeepAlive.Duration, "MQTT keepalive interval")
	fs.DurationVar(&o.Mqtt.PublishTimeout.Duration, "mqtt-publish-timeout", o.Mqtt.PublishTimeout.Duration, "How long to wait for a publish acknowledgement before requeueing the event")
	fs.DurationVar(&o.Mqtt.RetryInterval.Duration, "mqtt-retry-interval", o.Mqtt.RetryInterval.Duration, "Pause after a failed publish and upper bound of the reconnect interval")

	fs.StringVar(&o.Serial.Device, "serial-device", o.Serial.Device, "Serial device of the RFLink gateway")
	fs.IntVar(&o.Serial.BaudRate, "serial-baud-rate", o.Serial.BaudRate, "Serial baud rate")
	fs.DurationVar(&o.Serial.ReadTimeout.Duration, "serial-read-timeout", o.Serial.ReadTimeout.Duration, "Serial read timeout, bounds the idle wait of the serial link")
	fs.DurationVar(&o.Serial.ReconnectInterval.Duration, "serial-reconnect-interval", o.Serial.ReconnectInterval.Duration, "Pause between attempts to open the serial device")

	fs.StringSliceVar(&o.DirectOutputParams, "direct-output-params", o.DirectOutputParams, "Report keys published verbatim instead of decoded as signed hex, e.g. SWITCH,CMD,BAT")
	fs.StringSliceVar(&o.IgnoredDevices, "ignored-devices", o.IgnoredDevices, "Device ids, families or family/deviceId pairs muted in both directions")
}

func (o *Options) BrokerURL() string {
	return fmt.Sprintf("tcp://%s", net.JoinHostPort(o.Mqtt.Host, strconv.Itoa(o.Mqtt.Port)))
}

func (o *Options) Config() (*config.Config, error) {
	c := &config.Config{
		CertFile: o.CertFile,
		KeyFile:  o.KeyFile,
	}

	commands := queue.New[runtime.DeviceCommand]()
	events := queue.New[runtime.DeviceEvent]()
	filter := runtime.NewIgnoreFilter(o.IgnoredDevices...)

	serialLink := rflink.NewSerialLink(o.Serial.Device, commands, events,
		rflink.WithBaudRate(o.Serial.BaudRate),
		rflink.WithReadTimeout(o.Serial.ReadTimeout.Duration),
		rflink.WithReconnectInterval(o.Serial.ReconnectInterval.Duration),
		rflink.WithPassThrough(o.DirectOutputParams...),
		rflink.WithIgnoreFilter(filter),
	)
	codec := broker.NewTopicCodec(o.Mqtt.Prefix)
	mqttLink := broker.NewMqttLink(o.BrokerURL(), codec, commands, events,
		broker.WithCredentials(o.Mqtt.Username, o.Mqtt.Password),
		broker.WithClientID(o.Mqtt.ClientID),
		broker.WithKeepAlive(o.Mqtt.KeepAlive.Duration),
		broker.WithPublishTimeout(o.Mqtt.PublishTimeout.Duration),
		broker.WithRetryInterval(o.Mqtt.RetryInterval.Duration),
	)

	gatewayOpts := []gateway.Option{
		gateway.WithName(o.Name),
		gateway.WithPrefix(codec.Prefix()),
		gateway.WithIgnoreFilter(filter),
		gateway.WithLink(serialLink),
		gateway.WithLink(mqttLink),
	}
	if len(o.DataDir) > 0 {
		store, err := storage.NewFsClient(o.DataDir)
		if err != nil {
			return nil, err
		}
		gatewayOpts = append(gatewayOpts, gateway.WithStore(store))
	}

	gatewayMgr := gateway.NewGatewayManager(commands, events, gatewayOpts...)
	gatewayMgr.Init()
	c.GatewayMgr = gatewayMgr

	return c, nil
}
