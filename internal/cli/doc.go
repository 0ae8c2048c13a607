// Package cli implements the rebaser command line.
package cli
