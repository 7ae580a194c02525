package roundmigrations

import (
	"context"
	"fmt"

	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating round_summaries and chat_messages tables...")

		if _, err := db.NewCreateTable().Model((*rounddb.RoundSummary)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create round_summaries table: %w", err)
		}

		if _, err := db.NewCreateTable().Model((*rounddb.ChatMessage)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create chat_messages table: %w", err)
		}

		if _, err := db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS idx_chat_messages_round ON chat_messages(round_id, created_at);
		`); err != nil {
			return fmt.Errorf("failed to create chat_messages index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping round_summaries and chat_messages tables...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS chat_messages; DROP TABLE IF EXISTS round_summaries;`); err != nil {
			return fmt.Errorf("failed to drop projection tables: %w", err)
		}
		return nil
	})
}
