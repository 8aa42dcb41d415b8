package transport

import (
	"context"
	"fmt"
	"sync"
)

// Opener opens a Source for one bus.
type Opener func(ctx context.Context, cfg Config) (Source, error)

var (
	mu       sync.RWMutex
	registry = map[Bus]Opener{
		BusSerial:      openSerial,
		BusNetwork:     openNetwork,
		BusBluetoothLE: openBluetoothLE,
	}
)

// Register replaces the opener for bus.
func Register(bus Bus, open Opener) {
	mu.Lock()
	defer mu.Unlock()
	registry[bus] = open
}

func Get(bus Bus) (Opener, bool) {
	mu.RLock()
	defer mu.RUnlock()
	open, ok := registry[bus]
	return open, ok
}

// Open validates cfg and opens it with the registered opener.
func Open(ctx context.Context, cfg Config) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	open, ok := Get(cfg.Bus)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBus, cfg.Bus)
	}
	return open(ctx, cfg)
}

func openBluetoothLE(context.Context, Config) (Source, error) {
	return nil, fmt.Errorf("%w: %s", ErrBusUnsupported, BusBluetoothLE)
}
