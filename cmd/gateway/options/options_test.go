package options

import (
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	baseoptions "rflinkgateway/pkg/generic/options"
	"testing"
	"time"
)

func TestDefaultOptionsAreValid(t *testing.T) {
	o := NewDefaultOptions()
	assert.Empty(t, o.validate())
	assert.Equal(t, "tcp://localhost:1883", o.BrokerURL())
	assert.Equal(t, 57600, o.Serial.BaudRate)
	assert.Equal(t, "RFLinkGateway", o.Mqtt.ClientID)
	assert.Equal(t, 120*time.Second, o.Mqtt.KeepAlive.Duration)
}

func TestValidateReportsEveryField(t *testing.T) {
	o := NewDefaultOptions()
	o.Port = "http"
	o.CertFile = "tls.crt"
	o.Mqtt.Host = " "
	o.Mqtt.Port = 70000
	o.Mqtt.Prefix = "home/#"
	o.Mqtt.RetryInterval.Duration = 0
	o.Serial.Device = ""
	o.Serial.BaudRate = 0

	var fields []string
	for _, err := range o.validate() {
		fields = append(fields, err.Field)
	}
	assert.ElementsMatch(t, []string{
		"port",
		"tlsPrivateKeyFile",
		"mqtt.host",
		"mqtt.port",
		"mqtt.prefix",
		"mqtt.retryInterval",
		"serial.device",
		"serial.baudRate",
	}, fields)
}

func TestEmptyPortDisablesAPI(t *testing.T) {
	o := NewDefaultOptions()
	o.Port = ""
	assert.Empty(t, o.validate())
}

func TestFlags(t *testing.T) {
	o := NewDefaultOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--mqtt-host", "broker.lan",
		"--mqtt-port", "8883",
		"--mqtt-prefix", "home/rflink",
		"--serial-device", "/dev/ttyUSB0",
		"--direct-output-params", "SWITCH,CMD",
		"--ignored-devices", "Oregon,HUMI/1234",
	}))
	assert.Equal(t, "tcp://broker.lan:8883", o.BrokerURL())
	assert.Equal(t, "home/rflink", o.Mqtt.Prefix)
	assert.Equal(t, "/dev/ttyUSB0", o.Serial.Device)
	assert.Equal(t, []string{"SWITCH", "CMD"}, o.DirectOutputParams)
	assert.Equal(t, []string{"Oregon", "HUMI/1234"}, o.IgnoredDevices)
}

func TestConfigFileWithFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mqtt:
  host: broker.lan
  prefix: home/rflink
  keepAlive: 60s
serial:
  device: /dev/ttyUSB1
ignoredDevices:
- Oregon
`), 0o644))

	o := NewDefaultOptions()
	o.ConfigFile = path
	require.NoError(t, baseoptions.ParseAndApplyConfigFile(o, []string{"--config", path, "--mqtt-host", "override.lan"}))

	assert.Equal(t, "override.lan", o.Mqtt.Host)
	assert.Equal(t, "home/rflink", o.Mqtt.Prefix)
	assert.Equal(t, 60*time.Second, o.Mqtt.KeepAlive.Duration)
	assert.Equal(t, "/dev/ttyUSB1", o.Serial.Device)
	assert.Equal(t, []string{"Oregon"}, o.IgnoredDevices)
	assert.Equal(t, 1883, o.Mqtt.Port)
	assert.Empty(t, o.validate())
}

func TestConfigBuildsGateway(t *testing.T) {
	o := NewDefaultOptions()
	o.Name = "attic"
	o.IgnoredDevices = []string{"Oregon"}

	c, err := o.Config()
	require.NoError(t, err)
	meta, err := c.GatewayMgr.GetGatewayMeta()
	require.NoError(t, err)
	assert.Equal(t, "attic", meta.Name)
	assert.Equal(t, "rflink", meta.Prefix)
	assert.Equal(t, []string{"Oregon"}, meta.IgnoredDevices)
	require.Len(t, meta.Links, 2)
	assert.Equal(t, "serial", meta.Links[0].Name)
	assert.Equal(t, "mqtt", meta.Links[1].Name)
	assert.Equal(t, "disconnected", meta.Links[0].State)
}

func TestConfigKeepsGatewayIdInDataDir(t *testing.T) {
	o := NewDefaultOptions()
	o.DataDir = filepath.Join(t.TempDir(), "rflink")

	first, err := o.Config()
	require.NoError(t, err)
	second, err := o.Config()
	require.NoError(t, err)

	firstMeta, _ := first.GatewayMgr.GetGatewayMeta()
	secondMeta, _ := second.GatewayMgr.GetGatewayMeta()
	assert.Equal(t, firstMeta.ID, secondMeta.ID)
	assert.FileExists(t, filepath.Join(o.DataDir, "gateway.json"))
}
