// Package transport opens byte sources for stream sessions.
//
// Ownership boundary:
// - bus selection (serial, network, bluetooth le)
// - dialing and reconnect backoff
//
// A Source delivers raw chunks in arrival order with no alignment to frame
// boundaries. Framing belongs to package frame.
package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	ErrUnknownBus     = errors.New("transport: unknown bus")
	ErrBusUnsupported = errors.New("transport: bus not supported on this build")
	ErrInvalidConfig  = errors.New("transport: invalid config")
)

// Bus is the kind of device a Source talks to.
type Bus int

const (
	BusSerial Bus = iota
	BusNetwork
	BusBluetoothLE
)

func (b Bus) String() string {
	switch b {
	case BusSerial:
		return "serial"
	case BusNetwork:
		return "network"
	case BusBluetoothLE:
		return "ble"
	default:
		return fmt.Sprintf("bus(%d)", int(b))
	}
}

func ParseBus(raw string) (Bus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "serial", "uart":
		return BusSerial, nil
	case "network", "net", "tcp", "udp":
		return BusNetwork, nil
	case "ble", "bluetooth", "bluetooth_le":
		return BusBluetoothLE, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBus, raw)
	}
}

// Source is an open device. Writes reach the device when it accepts them.
type Source interface {
	io.ReadWriteCloser
	Name() string
	Bus() Bus
}

type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	Parity   string
	StopBits string
}

type NetworkConfig struct {
	// Protocol is "tcp" or "udp".
	Protocol string
	// Address is the remote peer. For udp it is optional when ListenAddress
	// is set and then only receives are possible until a peer is known.
	Address       string
	ListenAddress string
	DialTimeout   time.Duration
}

type Config struct {
	Bus     Bus
	Serial  SerialConfig
	Network NetworkConfig
}

func DefaultConfig() Config {
	return Config{
		Bus: BusSerial,
		Serial: SerialConfig{
			BaudRate: 9600,
			DataBits: 8,
			Parity:   "none",
			StopBits: "1",
		},
		Network: NetworkConfig{
			Protocol:    "tcp",
			DialTimeout: 5 * time.Second,
		},
	}
}

func (c Config) Validate() error {
	switch c.Bus {
	case BusSerial:
		if strings.TrimSpace(c.Serial.Port) == "" {
			return fmt.Errorf("%w: serial port is required", ErrInvalidConfig)
		}
		if c.Serial.BaudRate <= 0 {
			return fmt.Errorf("%w: baud rate must be positive", ErrInvalidConfig)
		}
	case BusNetwork:
		switch strings.ToLower(c.Network.Protocol) {
		case "tcp":
			if strings.TrimSpace(c.Network.Address) == "" {
				return fmt.Errorf("%w: tcp address is required", ErrInvalidConfig)
			}
		case "udp":
			if strings.TrimSpace(c.Network.Address) == "" && strings.TrimSpace(c.Network.ListenAddress) == "" {
				return fmt.Errorf("%w: udp needs an address or a listen address", ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unknown network protocol %q", ErrInvalidConfig, c.Network.Protocol)
		}
	case BusBluetoothLE:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownBus, int(c.Bus))
	}
	return nil
}
