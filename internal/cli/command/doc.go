// Package command provides the chgrid command-line interface.
//
// Commands:
//
//	run       start the channel grid, its pollers and the admin endpoint
//	inspect   verify the stored checkpoint and summarize it
//	layout    print the row to partition key mapping
//	config    show or validate the effective configuration
//	version   print build information
//
// Every command reads the same configuration: defaults, then the file
// given by --config, then CHGRID_* environment variables, then flags.
package command
