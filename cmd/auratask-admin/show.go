package main

import (
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newShowCmd(open storeOpener, out outputFunc) *cobra.Command {
	var idArg string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an identity and how much it owns",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(idArg)
			if err != nil {
				return fmt.Errorf("invalid --id: %w", err)
			}

			st, release, err := open()
			if err != nil {
				return err
			}
			defer release()

			ctx := cmd.Context()
			user, err := st.FindUser(ctx, id)
			if err != nil {
				return fmt.Errorf("identity %s: %w", id, err)
			}
			groups, err := st.ListTaskGroups(ctx, id, store.GroupFilter{})
			if err != nil {
				return err
			}
			tasks, err := st.ListTasks(ctx, id, store.TaskFilter{})
			if err != nil {
				return err
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%s  %s  (%s)\n", user.ID, user.Username, user.Email)
			fmt.Fprintf(&b, "  provider: %s  guest: %t\n", user.AuthProvider, user.IsGuest)
			if user.Retired() {
				fmt.Fprintf(&b, "  upgraded to %s at %s\n", *user.GuestUpgradedToID, user.GuestUpgradedAt.Format("2006-01-02 15:04:05"))
			}
			fmt.Fprintf(&b, "  points: %d  streak: %d (longest %d)  onboarding done: %t\n",
				user.AuraPoints, user.CurrentStreak, user.LongestStreak, user.OnboardingDone)
			fmt.Fprintf(&b, "  groups: %d  tasks: %d\n", len(groups), len(tasks))

			return out(cmd, map[string]interface{}{
				"user":   user,
				"groups": len(groups),
				"tasks":  len(tasks),
			}, b.String())
		},
	}
	cmd.Flags().StringVar(&idArg, "id", "", "identity id")
	cmd.MarkFlagRequired("id")
	return cmd
}
