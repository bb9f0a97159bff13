// Package main provides the entry point for the contratos CLI.
//
// contratos exports public-procurement contracts from the Portal da
// Transparência API to a flat CSV table, optionally mirroring the result
// into a local SQLite database.
//
// Usage:
//
//	contratos fetch
//	contratos fetch --orgao 26246 --output contratos.csv
//
// See --help for all available options.
package main

// main is the entry point for the contratos CLI.
func main() {
	Execute()
}
