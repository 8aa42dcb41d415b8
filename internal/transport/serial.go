package transport

import (
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial"
)

type serialSource struct {
	serial.Port
	name string
}

func (s *serialSource) Name() string { return s.name }
func (s *serialSource) Bus() Bus     { return BusSerial }

func openSerial(_ context.Context, cfg Config) (Source, error) {
	mode, err := serialMode(cfg.Serial)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Serial.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open serial %s: %w", cfg.Serial.Port, err)
	}
	return &serialSource{Port: port, name: "serial://" + cfg.Serial.Port}, nil
}

func serialMode(sc SerialConfig) (*serial.Mode, error) {
	mode := &serial.Mode{BaudRate: sc.BaudRate, DataBits: sc.DataBits}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}
	switch strings.ToLower(strings.TrimSpace(sc.Parity)) {
	case "", "none", "n":
		mode.Parity = serial.NoParity
	case "odd", "o":
		mode.Parity = serial.OddParity
	case "even", "e":
		mode.Parity = serial.EvenParity
	case "mark", "m":
		mode.Parity = serial.MarkParity
	case "space", "s":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("%w: parity %q", ErrInvalidConfig, sc.Parity)
	}
	switch strings.TrimSpace(sc.StopBits) {
	case "", "1":
		mode.StopBits = serial.OneStopBit
	case "1.5":
		mode.StopBits = serial.OnePointFiveStopBits
	case "2":
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("%w: stop bits %q", ErrInvalidConfig, sc.StopBits)
	}
	return mode, nil
}

// SerialPorts lists the serial devices present on the host.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
