// Package storage wires the bundled variable backends into a
// variables.Backends registry.
//
//	memory    aliases: memory, mem
//	sqlite    aliases: sqlite, sqlite3
//	postgres  aliases: postgres, postgresql, pg
package storage
