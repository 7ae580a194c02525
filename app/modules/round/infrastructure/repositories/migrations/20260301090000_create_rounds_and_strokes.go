package roundmigrations

import (
	"context"
	"fmt"

	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating rounds and strokes tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().Model((*rounddb.Round)(nil)).
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create rounds table: %w", err)
			}

			if _, err := tx.NewCreateIndex().Model((*rounddb.Round)(nil)).
				Index("idx_rounds_user_started").
				Column("user_id", "started_at").
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create rounds index: %w", err)
			}

			if _, err := tx.NewCreateTable().Model((*rounddb.Stroke)(nil)).
				IfNotExists().
				ForeignKey(`("round_id") REFERENCES "rounds" ("id") ON DELETE CASCADE`).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create strokes table: %w", err)
			}

			if _, err := tx.NewCreateIndex().Model((*rounddb.Stroke)(nil)).
				Index("idx_strokes_round_created").
				Column("round_id", "created_at").
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create strokes index: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping rounds and strokes tables...")

		if _, err := db.NewDropTable().Model((*rounddb.Stroke)(nil)).IfExists().Cascade().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop strokes table: %w", err)
		}
		if _, err := db.NewDropTable().Model((*rounddb.Round)(nil)).IfExists().Cascade().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop rounds table: %w", err)
		}
		return nil
	})
}
