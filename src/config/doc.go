// Package config defines the configuration for a Castor node.
//
// Regardless of how Castor is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. On top of these
// configuration options, Castor relies on a data directory, defined by
// Config.DataDir, where it expects to find a few additional files:
//
//	priv_key.pem // a PEM file containing the private key (cf. castor keygen).
//	peers.json // a JSON file containing the current list of validators.
//	badger_db // (default location) the folder containing the Badger database.
package config
