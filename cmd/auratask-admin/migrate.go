package main

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/migration"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newMigrateCmd(open storeOpener, out outputFunc) *cobra.Command {
	var guestArg, authArg string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move a guest's data onto an account and retire the guest",
		Long: `Runs the same transactional migration a sign-in performs. Re-running it
for a guest already migrated to the same account changes nothing.`,
		Example: "  auratask-admin migrate --guest 6f1c... --auth 9b2e...",
		RunE: func(cmd *cobra.Command, args []string) error {
			guestID, err := uuid.Parse(guestArg)
			if err != nil {
				return fmt.Errorf("invalid --guest: %w", err)
			}
			authID, err := uuid.Parse(authArg)
			if err != nil {
				return fmt.Errorf("invalid --auth: %w", err)
			}

			st, release, err := open()
			if err != nil {
				return err
			}
			defer release()

			report, err := migration.NewEngine(st).Migrate(cmd.Context(), guestID, authID)
			if err != nil {
				return err
			}

			text := fmt.Sprintf("migrated %s -> %s: %d groups merged, %d created, %d tasks, %d subtasks\n",
				guestID, authID, report.GroupsMerged, report.GroupsCreated, report.TasksCopied, report.SubtasksCopied)
			if report.AlreadyMigrated {
				text = fmt.Sprintf("%s was already migrated to %s, nothing to do\n", guestID, authID)
			}
			return out(cmd, report, text)
		},
	}
	cmd.Flags().StringVar(&guestArg, "guest", "", "guest identity id")
	cmd.Flags().StringVar(&authArg, "auth", "", "authenticated identity id")
	cmd.MarkFlagRequired("guest")
	cmd.MarkFlagRequired("auth")
	return cmd
}
