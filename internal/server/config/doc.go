// Package config defines the memkv-server configuration structure.
package config
