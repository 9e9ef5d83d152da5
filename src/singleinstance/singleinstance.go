// Package singleinstance lets one resident process own a loopback TCP port and serve
// translation requests from the CLI, so repeated lookups reuse its warm cache.
package singleinstance

import (
	"context"
	"errors"
	"os"
	"strconv"
)

const (
	defaultPortStart = 49500
	defaultPortEnd   = 49550

	PortStartEnvVar = "SINGLEINSTANCE_PORT_START"
	PortEndEnvVar   = "SINGLEINSTANCE_PORT_END"
)

// ErrAlreadyRunning is returned by Server.Start when another resident answers on the port.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Server owns the TCP endpoint and hands out translation requests.
type Server interface {
	// Start binds the first port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request, or the ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn is one client request awaiting a response.
type Conn interface {
	Request() Request
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

// Request asks the resident to translate Text.
type Request struct {
	Text string `json:"text"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Client delegates translation to a resident server.
type Client interface {
	// Translate returns delegated=false, err=nil when no resident answers.
	Translate(ctx context.Context, req Request) (delegated bool, text string, err error)
}

func NewServer() Server { return newTCPServer() }

func NewClient() Client { return newTCPClient() }

// portRange reads SINGLEINSTANCE_PORT_START/END (inclusive), clamped to [1024, 65535].
func portRange() (int, int) {
	start := envInt(PortStartEnvVar, defaultPortStart)
	end := envInt(PortEndEnvVar, defaultPortEnd)
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
