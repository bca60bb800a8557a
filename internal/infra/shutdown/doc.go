// Package shutdown runs named cleanup hooks in reverse registration order
// when the process receives SIGINT or SIGTERM, or when shutdown is
// triggered from inside the process.
package shutdown
