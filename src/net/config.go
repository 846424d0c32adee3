package net

import "time"

// Default network settings.
const (
	DefaultBindAddr   = "127.0.0.1:1337"
	DefaultMaxPool    = 2
	DefaultTCPTimeout = 1000 * time.Millisecond
)

// Config holds the validator-network settings.
type Config struct {
	// BindAddr is the local address:port this node listens on. In some
	// cases there may be a routable address that cannot be bound; use
	// AdvertiseAddr to advertise a different address to peers.
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr is the address advertised to other nodes, when
	// different from BindAddr.
	AdvertiseAddr string `mapstructure:"advertise"`

	// KeyDir is the directory containing the node's PEM private key. A
	// missing keyfile is generated on first start; a malformed one fails
	// startup.
	KeyDir string `mapstructure:"keydir"`

	// MaxPool controls how many connections are pooled per target.
	MaxPool int `mapstructure:"max-pool"`

	// TCPTimeout is the timeout applied to dials and writes.
	TCPTimeout time.Duration `mapstructure:"timeout"`
}
