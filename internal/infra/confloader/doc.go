// Package confloader provides the configuration loading mechanism.
//
// It uses koanf for flexible configuration loading from multiple sources
// with priority: Env > File > Default, and fsnotify for watching the
// configuration file for changes.
package confloader
