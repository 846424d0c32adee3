package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/reactor"
	"github.com/castornet/castor/src/reactor/validator"
)

//NewRunCmd returns the command that starts a Castor node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runCastor,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runCastor(cmd *cobra.Command, args []string) error {
	logger := _config.Logger()

	var node *validator.Reactor

	runner, err := reactor.NewRunner(
		reactor.DefaultQueueSize,
		logger,
		func(queue effects.EventQueueHandle) (reactor.Reactor, []effects.Effect[effects.ReactorEvent], error) {
			r, initial, err := validator.New(_config.ValidatorConfig(), queue, logger)
			if err != nil {
				return nil, nil, err
			}
			node = r
			return r, initial, nil
		},
	)
	if err != nil {
		logger.Error("Cannot initialize node:", err)
		return err
	}
	defer node.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner.Run(ctx)

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Duplicate log output to a file")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")
	cmd.Flags().Int64("seed", _config.Seed, "Fixed random seed for reproducible runs")

	// Network
	cmd.Flags().StringP("listen", "l", _config.BindAddr, "Listen IP:Port for castor node")
	cmd.Flags().StringP("advertise", "a", _config.AdvertiseAddr, "Advertise IP:Port for castor node")
	cmd.Flags().DurationP("timeout", "t", _config.TCPTimeout, "TCP Timeout")
	cmd.Flags().Int("max-pool", _config.MaxPool, "Connection pool size max")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")

	// Store
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")

	// Node configuration
	cmd.Flags().Duration("ping-interval", _config.PingInterval, "Time between liveness pings")
	cmd.Flags().Duration("era-duration", _config.EraDuration, "Length of a consensus era")
	cmd.Flags().Int("gossip-fanout", _config.GossipFanout, "Number of peers a deploy is relayed to")
	cmd.Flags().Int("gossip-hops", _config.GossipHops, "Number of relay hops a deploy travels")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	_config.Logger().WithFields(logrus.Fields{
		"DataDir":       _config.DataDir,
		"BindAddr":      _config.BindAddr,
		"AdvertiseAddr": _config.AdvertiseAddr,
		"ServiceAddr":   _config.ServiceAddr,
		"MaxPool":       _config.MaxPool,
		"TCPTimeout":    _config.TCPTimeout,
		"DatabaseDir":   _config.DatabaseDir,
		"LogLevel":      _config.LogLevel,
		"Moniker":       _config.Moniker,
		"Seed":          _config.Seed,
		"PingInterval":  _config.PingInterval,
		"EraDuration":   _config.EraDuration,
		"GossipFanout":  _config.GossipFanout,
		"GossipHops":    _config.GossipHops,
	}).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/castor.toml (.json, .yaml also work)
	viper.SetConfigName("castor")        // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
