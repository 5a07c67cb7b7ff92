package integration

import (
	"errors"
	"fmt"
	"log"
	"time"

	"go.bug.st/serial"
)

// SerialConfig describes the sensor's serial port
type SerialConfig struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

// SerialTransport reads sensor lines from a serial port
type SerialTransport struct {
	*StreamTransport
	port serial.Port
	name string
}

// OpenSerial opens the port in 8N1 mode. ReadTimeout bounds each readiness check.
func OpenSerial(cfg SerialConfig) (*SerialTransport, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 9600
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}

	log.Printf("Opening serial port %s at %d baud", cfg.Port, cfg.BaudRate)
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, describePortError(err))
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
	}

	return &SerialTransport{
		StreamTransport: NewStreamTransport(port, cfg.Port),
		port:            port,
		name:            cfg.Port,
	}, nil
}

// Close releases the port
func (t *SerialTransport) Close() error {
	log.Printf("Closing serial port %s", t.name)
	return t.port.Close()
}

// ListPorts returns the serial ports present on the system
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

func describePortError(err error) error {
	var portErr *serial.PortError
	if !errors.As(err, &portErr) {
		return err
	}
	switch portErr.Code() {
	case serial.PortNotFound:
		return fmt.Errorf("port not found: %w", err)
	case serial.PortBusy:
		return fmt.Errorf("port is in use by another process: %w", err)
	case serial.PermissionDenied:
		return fmt.Errorf("permission denied (is the user in the dialout group?): %w", err)
	default:
		return err
	}
}
