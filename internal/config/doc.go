// Package config manages rebaser configuration.
//
// Settings live in .git/rebaser.yml and provide defaults for the CLI flags:
// the date policy, the blank commit message and the debug log location.
package config
