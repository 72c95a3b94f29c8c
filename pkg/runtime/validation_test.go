package runtime

import (
	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"testing"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name   string
		cmd    DeviceCommand
		fields []string
	}{
		{"normal", DeviceCommand{Family: "NewKaku", DeviceID: "00c142", Parameter: "CMD", Payload: "ON"}, nil},
		{"normal empty payload", DeviceCommand{Family: "NewKaku", DeviceID: "00c142", Parameter: "CMD"}, nil},
		{"special", DeviceCommand{Kind: SpecialControl, Payload: "PING"}, nil},
		{"special with fields", DeviceCommand{Kind: SpecialControl, Payload: "NewKaku;00c142;1;ON"}, nil},
		{"missing address", DeviceCommand{Parameter: "CMD", Payload: "ON"}, []string{"commands[0].family", "commands[0].deviceId"}},
		{"delimiter in payload", DeviceCommand{Family: "NewKaku", DeviceID: "1", Parameter: "CMD", Payload: "ON;OFF"}, []string{"commands[0].payload"}},
		{"line break in parameter", DeviceCommand{Family: "NewKaku", DeviceID: "1", Parameter: "CMD\n", Payload: "ON"}, []string{"commands[0].parameter"}},
		{"special without payload", DeviceCommand{Kind: SpecialControl}, []string{"commands[0].payload"}},
		{"special with line break", DeviceCommand{Kind: SpecialControl, Payload: "PING\r\n10;REBOOT"}, []string{"commands[0].payload"}},
		{"unknown kind", DeviceCommand{Kind: Kind(7), Payload: "PING"}, []string{"commands[0].kind"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateCommand(tt.cmd, field.NewPath("commands").Index(0))
			var got []string
			for _, err := range errs {
				got = append(got, err.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}
