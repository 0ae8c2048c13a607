// Package runtime provides the execution context for rebaser commands.
//
// It encapsulates the shared dependencies commands need: the opened repository,
// its configuration and the logger.
package runtime
