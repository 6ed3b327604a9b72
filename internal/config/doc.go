// Package config loads the virtual RF network configuration.
//
// Settings merge from three sources, later ones winning: built-in
// defaults, an optional YAML file, and VRF_* environment variables.
// Validation runs after the merge so a bad port count, device id or
// firmware name fails setup synchronously.
package config
