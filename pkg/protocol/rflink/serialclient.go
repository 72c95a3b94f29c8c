package rflink

import (
	"bytes"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"io"
	"k8s.io/klog/v2"
	rflinkruntime "rflinkgateway/pkg/protocol/rflink/runtime"
	"time"
)

// Port is the part of serial.Port the gateway relies on.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

type OpenFunc func(device string, mode *serial.Mode) (Port, error)

func OpenSerialPort(device string, mode *serial.Mode) (Port, error) {
	return serial.Open(device, mode)
}

// SerialClient exchanges line delimited frames with one open port. It is owned by
// a single SerialLink and is not safe for concurrent use.
type SerialClient struct {
	Port    Port
	pending []byte
	buf     []byte
}

func NewSerialClient(port Port, readTimeout time.Duration) (*SerialClient, error) {
	if err := port.SetReadTimeout(readTimeout); err != nil {
		return nil, errors.Wrap(err, "set read timeout")
	}
	// drop whatever the gateway printed before we were listening
	if err := port.ResetInputBuffer(); err != nil {
		klog.V(2).InfoS("Failed to reset serial input buffer", "error", err)
	}
	return &SerialClient{Port: port, buf: make([]byte, 256)}, nil
}

func (sc *SerialClient) WriteFrame(frame string) error {
	n, err := sc.Port.Write([]byte(frame))
	if err != nil {
		return errors.Wrap(err, "write frame")
	}
	klog.V(5).InfoS("Succeed to write frame to serial port", "frame", frame, "length", n)
	return nil
}

// ReadLines performs one read bounded by the port read timeout and returns the
// lines completed by it, delimiter included. No input yields no lines and no error.
func (sc *SerialClient) ReadLines() ([][]byte, error) {
	n, err := sc.Port.Read(sc.buf)
	if err != nil {
		return nil, errors.Wrap(err, "read serial port")
	}
	if n == 0 {
		return nil, nil
	}
	sc.pending = append(sc.pending, sc.buf[:n]...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(sc.pending, '\n')
		if i < 0 {
			break
		}
		line := make([]byte, i+1)
		copy(line, sc.pending[:i+1])
		lines = append(lines, line)
		sc.pending = sc.pending[i+1:]
	}

	if len(sc.pending) > rflinkruntime.MaxLineLength {
		klog.V(2).InfoS("Discarded serial input without line delimiter", "length", len(sc.pending))
		sc.pending = nil
		return lines, rflinkruntime.ErrLineTooLong
	}
	if len(sc.pending) == 0 {
		sc.pending = nil
	}
	return lines, nil
}

func (sc *SerialClient) Close() error {
	sc.pending = nil
	if sc.Port == nil {
		return rflinkruntime.ErrSerialPortClosed
	}
	err := sc.Port.Close()
	sc.Port = nil
	return err
}
