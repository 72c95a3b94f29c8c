package runtime

import (
	"errors"
	"go.bug.st/serial"
	"time"
)

var ErrMalformedField = errors.New("malformed frame field")
var ErrMalformedFrame = errors.New("malformed frame")
var ErrIncompleteCommand = errors.New("incomplete device command")
var ErrSerialPortClosed = errors.New("serial port closed")
var ErrLineTooLong = errors.New("serial line exceeds maximum length")

const (
	// DefaultBaudRate is the fixed speed of the RFLink USB gateway.
	DefaultBaudRate          = 57600
	DefaultReadTimeout       = 100 * time.Millisecond
	DefaultReconnectInterval = time.Second

	// MaxLineLength bounds the receive buffer when the device never sends a line delimiter.
	MaxLineLength = 1024
)

// Frame fields.
const (
	CommandFrame   = "10"
	ReportFrame    = "20"
	StatusSequence = "00"

	FieldSeparator = ";"
	KeyValueSep    = "="
	VersionKey     = "VER="
)

var DefaultMode = serial.Mode{
	BaudRate: DefaultBaudRate,
	DataBits: 8,
	Parity:   serial.NoParity,
	StopBits: serial.OneStopBit,
}
