// internal/link/serial/client.go

// Package serial is the line-oriented instrument client over an RS-232
// port. Same framing contract as the tcp adapter.
package serial

import (
	"bufio"
	"errors"
	"strings"
	"sync"
	"time"

	gserial "github.com/goburrow/serial"
)

// Config is minimal port config. Parity is fixed at none and data bits
// at eight; every instrument this daemon drives uses 8N1.
type Config struct {
	Device   string
	BaudRate int
	Timeout  time.Duration
}

// Client is an open serial line client.
type Client struct {
	mu   sync.Mutex
	port gserial.Port
	rd   *bufio.Reader
}

// New opens the port.
func New(cfg Config) (*Client, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial link: device required")
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 115200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	port, err := gserial.Open(&gserial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		port: port,
		rd:   bufio.NewReader(port),
	}, nil
}

// Close closes the port.
func (c *Client) Close() error {
	if c == nil || c.port == nil {
		return nil
	}
	return c.port.Close()
}

// Query writes one command and reads one reply line.
func (c *Client) Query(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeLine(cmd); err != nil {
		return "", err
	}
	return c.readLine()
}

// Send writes one command with no reply expected.
func (c *Client) Send(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLine(cmd)
}

// ReadLine reads one further reply line.
func (c *Client) ReadLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLine()
}

func (c *Client) writeLine(cmd string) error {
	if c.port == nil {
		return errors.New("serial link: not open")
	}
	_, err := c.port.Write([]byte(cmd + "\n"))
	return err
}

func (c *Client) readLine() (string, error) {
	if c.port == nil {
		return "", errors.New("serial link: not open")
	}
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
