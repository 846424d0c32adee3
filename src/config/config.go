package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/castornet/castor/src/common"
	"github.com/castornet/castor/src/components/apiserver"
	"github.com/castornet/castor/src/components/consensus"
	"github.com/castornet/castor/src/components/gossiper"
	"github.com/castornet/castor/src/components/pinger"
	"github.com/castornet/castor/src/components/storage"
	"github.com/castornet/castor/src/net"
	"github.com/castornet/castor/src/reactor/validator"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing the validator's
	// private key.
	DefaultKeyfile = "priv_key.pem"

	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database.
	DefaultBadgerFile = "badger_db"

	// DefaultPeersFile is the default name of the file listing the validators.
	DefaultPeersFile = "peers.json"
)

// Default configuration values.
const (
	DefaultLogLevel     = "debug"
	DefaultServiceAddr  = apiserver.DefaultBindAddr
	DefaultPingInterval = pinger.DefaultInterval
	DefaultEraDuration  = consensus.DefaultEraDuration
	DefaultGossipFanout = gossiper.DefaultFanout
	DefaultGossipHops   = gossiper.DefaultHopLimit
)

// Config contains all the configuration properties of a Castor node.
type Config struct {
	// DataDir is the top-level directory containing Castor configuration and
	// data: the keyfile, the peers file, and by default the database.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, duplicates the log output to a file.
	LogFile string `mapstructure:"log-file"`

	// Moniker defines the friendly name of this node.
	Moniker string `mapstructure:"moniker"`

	// Seed fixes the node's random source for reproducible runs. Zero seeds
	// from entropy.
	Seed int64 `mapstructure:"seed"`

	// BindAddr is the local address:port where this node talks to other
	// nodes. In some cases, there may be a routable address that cannot be
	// bound. Use AdvertiseAddr to advertise a different address to support
	// this.
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr is used to change the address that we advertise to other
	// nodes.
	AdvertiseAddr string `mapstructure:"advertise"`

	// MaxPool controls how many connections are pooled per target.
	MaxPool int `mapstructure:"max-pool"`

	// TCPTimeout is the timeout of outgoing connections.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// ServiceAddr is the address:port of the HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// PingInterval is the period of the liveness heartbeat.
	PingInterval time.Duration `mapstructure:"ping-interval"`

	// EraDuration is the length of a consensus era.
	EraDuration time.Duration `mapstructure:"era-duration"`

	// GossipFanout is the number of peers a deploy is relayed to per hop.
	GossipFanout int `mapstructure:"gossip-fanout"`

	// GossipHops is the number of relay hops a deploy travels from its
	// origin.
	GossipHops int `mapstructure:"gossip-hops"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:      DefaultDataDir(),
		LogLevel:     DefaultLogLevel,
		BindAddr:     net.DefaultBindAddr,
		MaxPool:      net.DefaultMaxPool,
		TCPTimeout:   net.DefaultTCPTimeout,
		ServiceAddr:  DefaultServiceAddr,
		DatabaseDir:  DefaultDatabaseDir(),
		PingInterval: DefaultPingInterval,
		EraDuration:  DefaultEraDuration,
		GossipFanout: DefaultGossipFanout,
		GossipHops:   DefaultGossipHops,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	logger := common.NewTestLogger(t)
	logger.Level = level
	config.logger = logger
	return config
}

// SetDataDir sets the top-level Castor directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitely
// set it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Keyfile returns the full path of the file containing the private key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// PeersFile returns the full path of the file listing the validators.
func (c *Config) PeersFile() string {
	return filepath.Join(c.DataDir, DefaultPeersFile)
}

// ValidatorConfig assembles the reactor configuration from the flat operator
// configuration.
func (c *Config) ValidatorConfig() validator.Config {
	return validator.Config{
		Moniker: c.Moniker,
		DataDir: c.DataDir,
		Seed:    c.Seed,
		Net: net.Config{
			BindAddr:      c.BindAddr,
			AdvertiseAddr: c.AdvertiseAddr,
			KeyDir:        c.DataDir,
			MaxPool:       c.MaxPool,
			TCPTimeout:    c.TCPTimeout,
		},
		Pinger: pinger.Config{
			Interval: c.PingInterval,
		},
		Storage: storage.Config{
			Path: c.DatabaseDir,
		},
		API: apiserver.Config{
			BindAddr: c.ServiceAddr,
		},
		Consensus: consensus.Config{
			EraDuration: c.EraDuration,
		},
		Gossip: gossiper.Config{
			Fanout:   c.GossipFanout,
			HopLimit: c.GossipHops,
		},
	}
}

// Logger returns a formatted logrus Entry, with prefix set to "castor".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			_, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY, 0666)
			if err != nil {
				c.logger.WithField("file", c.LogFile).Info("Failed to open log file, using default stderr")
			} else {
				pathMap := lfshook.PathMap{}
				for _, level := range logrus.AllLevels {
					if level <= c.logger.Level {
						pathMap[level] = c.LogFile
					}
				}
				c.logger.Hooks.Add(lfshook.NewHook(
					pathMap,
					&logrus.TextFormatter{},
				))
			}
		}
	}
	return c.logger.WithField("prefix", "castor")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level Castor config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Castor")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Castor")
		} else {
			return filepath.Join(home, ".castor")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
