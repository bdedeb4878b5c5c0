// Package mergeguard provides the command-line interface for the
// mergeguard review gate. It configures subcommands (analyze, gate,
// review, policy, packs, ci), parses flags, and executes the selected
// command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/mergeguard/mergeguard/cmd/mergeguard"
//	func main() { mergeguard.Execute() }
package mergeguard
