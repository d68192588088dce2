// Package receiver reads MT-RX records from a serial port or a capture file.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Serial defaults of the MT-RX data port
const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 1 * time.Second
)

// Device is an MT-RX attached to a serial port
type Device struct {
	path     string
	port     serial.Port
	logger   *logrus.Logger
	mu       sync.Mutex
	isOpen   bool
	cancelFn context.CancelFunc
}

// ListPorts returns the serial ports present on this machine
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// NewDevice creates a device for the serial port at path
func NewDevice(path string, logger *logrus.Logger) (*Device, error) {
	if path == "" {
		return nil, errors.New("no serial device path (e.g. /dev/ttyUSB0 or COM3) provided")
	}

	return &Device{
		path:   path,
		logger: logger,
		isOpen: false,
	}, nil
}

// Configure opens the port at 8N1 with the given baud rate and read timeout
func (d *Device) Configure(baudRate int, readTimeout time.Duration) error {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.path, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.path, err)
	}

	// Read() must not block forever or cancellation is never observed
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	d.mu.Lock()
	d.port = port
	d.isOpen = true
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"device":       d.path,
		"baud_rate":    baudRate,
		"read_timeout": readTimeout,
	}).Info("Serial device configured successfully")

	return nil
}

// StartCapture reads records from the port into lineChan until ctx is cancelled
func (d *Device) StartCapture(ctx context.Context, lineChan chan<- string) error {
	d.mu.Lock()
	if !d.isOpen {
		d.mu.Unlock()
		return errors.New("device not open")
	}
	captureCtx, cancel := context.WithCancel(ctx)
	d.cancelFn = cancel
	port := d.port
	d.mu.Unlock()
	defer cancel()

	d.logger.WithField("device", d.path).Info("Starting serial capture")

	if err := ReadLines(captureCtx, &timeoutReader{ctx: captureCtx, r: port}, lineChan); err != nil {
		return fmt.Errorf("serial read failed: %w", err)
	}
	return nil
}

// Close closes the serial port
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancelFn != nil {
		d.cancelFn()
	}

	if d.port != nil && d.isOpen {
		if err := d.port.Close(); err != nil {
			return fmt.Errorf("failed to close device: %w", err)
		}
		d.isOpen = false
		d.logger.WithField("device", d.path).Info("Serial device closed")
	}

	return nil
}

// timeoutReader turns the (0, nil) result of a timed out serial read into a
// retry, and reports io.EOF once ctx is done.
type timeoutReader struct {
	ctx context.Context
	r   io.Reader
}

func (t *timeoutReader) Read(p []byte) (int, error) {
	for {
		if err := t.ctx.Err(); err != nil {
			return 0, io.EOF
		}

		n, err := t.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}
