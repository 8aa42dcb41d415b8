package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
)

var ErrNoPeer = errors.New("transport: udp peer unknown")

type connSource struct {
	net.Conn
	name string
}

func (c *connSource) Name() string { return c.name }
func (c *connSource) Bus() Bus     { return BusNetwork }

func openNetwork(ctx context.Context, cfg Config) (Source, error) {
	nc := cfg.Network
	switch strings.ToLower(nc.Protocol) {
	case "tcp":
		d := net.Dialer{Timeout: nc.DialTimeout}
		conn, err := d.DialContext(ctx, "tcp", nc.Address)
		if err != nil {
			return nil, fmt.Errorf("transport: dial tcp %s: %w", nc.Address, err)
		}
		return &connSource{Conn: conn, name: "tcp://" + nc.Address}, nil
	case "udp":
		if strings.TrimSpace(nc.ListenAddress) == "" {
			d := net.Dialer{Timeout: nc.DialTimeout}
			conn, err := d.DialContext(ctx, "udp", nc.Address)
			if err != nil {
				return nil, fmt.Errorf("transport: dial udp %s: %w", nc.Address, err)
			}
			return &connSource{Conn: conn, name: "udp://" + nc.Address}, nil
		}
		return listenUDP(ctx, nc)
	default:
		return nil, fmt.Errorf("%w: unknown network protocol %q", ErrInvalidConfig, nc.Protocol)
	}
}

// udpSource receives datagrams from any peer on a local port. Writes go to
// the configured remote address, or to the last peer heard from.
type udpSource struct {
	conn *net.UDPConn
	name string

	mu   sync.Mutex
	peer net.Addr
}

func listenUDP(ctx context.Context, nc NetworkConfig) (Source, error) {
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", nc.ListenAddress)
	if err != nil {
		return nil, fmt.Errorf("transport: listen udp %s: %w", nc.ListenAddress, err)
	}
	conn := pc.(*net.UDPConn)
	s := &udpSource{conn: conn, name: "udp://" + conn.LocalAddr().String()}
	if strings.TrimSpace(nc.Address) != "" {
		peer, err := net.ResolveUDPAddr("udp", nc.Address)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("transport: resolve udp %s: %w", nc.Address, err)
		}
		s.peer = peer
	}
	return s, nil
}

func (u *udpSource) Read(p []byte) (int, error) {
	n, addr, err := u.conn.ReadFrom(p)
	if n > 0 {
		u.mu.Lock()
		if u.peer == nil {
			u.peer = addr
		}
		u.mu.Unlock()
	}
	return n, err
}

func (u *udpSource) Write(p []byte) (int, error) {
	u.mu.Lock()
	peer := u.peer
	u.mu.Unlock()
	if peer == nil {
		return 0, ErrNoPeer
	}
	return u.conn.WriteTo(p, peer)
}

func (u *udpSource) Close() error { return u.conn.Close() }
func (u *udpSource) Name() string { return u.name }
func (u *udpSource) Bus() Bus     { return BusNetwork }

// LocalAddr reports the bound address, useful when listening on port 0.
func (u *udpSource) LocalAddr() net.Addr { return u.conn.LocalAddr() }
