// Package output renders command results for the chgrid CLI.
//
// Results are written as an aligned table (the default), indented JSON or
// YAML. Tables are built from structs, slices of structs and maps; field
// names come from the json tag when one is present.
package output
