// Package config defines the configuration for a relay node.
//
// Regardless of how the relay is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. On top of these
// configuration options, the relay relies on a data directory, defined by
// Config.DataDir, where it expects to find a few additional configuration
// files:
//
//  keys.json // the local key pairs (cf. relay keygen).
//  peers.json // a JSON file containing the known peers and their public keys.
//  relay.toml // (optional) configuration file read by the relay command.
package config
