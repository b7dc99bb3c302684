// Package output renders responses and history for the command line.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON envelope, one document per response
//
// Both formatters implement the Formatter interface.
package output
