// internal/link/gpib/client.go

// Package gpib is the instrument client for supplies on a GPIB bus
// behind a Prologix USB controller. Query/Send only; the multi-line
// status reads of the source instrument are tcp/serial-only.
package gpib

import (
	"errors"
	"io"
	"strings"

	"github.com/gotmc/prologix"
	"github.com/gotmc/prologix/driver/vcp"
)

// Config identifies the controller port and the instrument address.
type Config struct {
	Port    string // Prologix virtual COM port, e.g. /dev/ttyUSB0
	Address int    // GPIB primary address of the instrument
}

// Client drives one instrument through a Prologix controller.
type Client struct {
	ctrl *prologix.Controller
	port io.ReadWriteCloser
}

// New opens the controller port and addresses the instrument.
func New(cfg Config) (*Client, error) {
	if cfg.Port == "" {
		return nil, errors.New("gpib link: controller port required")
	}
	if cfg.Address < 0 || cfg.Address > 30 {
		return nil, errors.New("gpib link: address must be 0-30")
	}

	port, err := vcp.NewVCP(cfg.Port)
	if err != nil {
		return nil, err
	}

	ctrl, err := prologix.NewController(port, cfg.Address, false)
	if err != nil {
		port.Close()
		return nil, err
	}

	return &Client{ctrl: ctrl, port: port}, nil
}

// Close releases the controller port.
func (c *Client) Close() error {
	if c == nil || c.port == nil {
		return nil
	}
	return c.port.Close()
}

// Query writes one command and reads the instrument's reply.
func (c *Client) Query(cmd string) (string, error) {
	reply, err := c.ctrl.Query(cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(reply, "\r\n"), nil
}

// Send writes one command with no reply expected.
func (c *Client) Send(cmd string) error {
	return c.ctrl.Command("%s", cmd)
}
