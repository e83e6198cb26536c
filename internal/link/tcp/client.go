// internal/link/tcp/client.go

// Package tcp is a line-oriented instrument client over TCP. The supply
// speaks plain ASCII commands terminated by '\n'; this adapter frames
// and round-trips them. Framing only: no command semantics.
package tcp

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync"
	"time"
)

// Config is minimal transport config.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client is a connected line client. Round trips are serialized; the
// instrument answers one query at a time.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	rd      *bufio.Reader
	timeout time.Duration
}

// New creates a connected client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("tcp link: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	conn, err := net.DialTimeout("tcp", cfg.Endpoint, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:    conn,
		rd:      bufio.NewReader(conn),
		timeout: cfg.Timeout,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
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

// ReadLine reads one further reply line. Used by multi-line replies
// (the source instrument's status table).
func (c *Client) ReadLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLine()
}

func (c *Client) writeLine(cmd string) error {
	if c.conn == nil {
		return errors.New("tcp link: not connected")
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	_, err := c.conn.Write([]byte(cmd + "\n"))
	return err
}

func (c *Client) readLine() (string, error) {
	if c.conn == nil {
		return "", errors.New("tcp link: not connected")
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", err
	}
	line, err := c.rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
