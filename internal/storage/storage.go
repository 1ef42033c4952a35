package storage

import (
	"fmt"

	"github.com/roach88/tempo/internal/storage/memory"
	"github.com/roach88/tempo/internal/storage/postgres"
	"github.com/roach88/tempo/internal/storage/sqlite"
	"github.com/roach88/tempo/internal/variables"
)

// RegisterDefaults registers every bundled backend.
func RegisterDefaults(b *variables.Backends) error {
	backends := []struct {
		factory variables.Factory
		aliases []string
	}{
		{memory.New, memory.Aliases},
		{sqlite.New, sqlite.Aliases},
		{postgres.New, postgres.Aliases},
	}
	for _, be := range backends {
		if err := b.Register(be.factory, be.aliases...); err != nil {
			return fmt.Errorf("register %s: %w", be.aliases[0], err)
		}
	}
	return nil
}
