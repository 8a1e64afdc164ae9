// Package cmd provides the command-line interface implementation for tgfs.
//
// It uses the Cobra library for command structure and Fang for styling:
//   - root: mounts the filesystem at MOUNTPOINT and serves it until interrupted
//   - ls: builds the cache once and prints the resulting tree as a table
//   - version: prints build metadata
//
// Configuration is loaded with viper from flags, TGFS_* environment variables
// (TG_ID and TG_HASH are accepted for the API credentials), an optional .env
// file and $XDG_CONFIG_HOME/tgfs/config.yaml, then checked with validator.
package cmd
