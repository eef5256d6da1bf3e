// Package main hosts the discvault CLI entrypoint.
//
// The Cobra-based command translates the archiving flags into an immutable
// session.Options, resolves configuration, sets up structured logging, and
// hands the run to the session controller. Keep this package lean: behavior
// belongs in the internal packages and is surfaced here through flags and
// subcommands.
package main
