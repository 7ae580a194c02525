package roundmigrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations holds the round module schema migrations.
var Migrations = migrate.NewMigrations()

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
