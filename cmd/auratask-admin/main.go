// Command auratask-admin inspects identities and replays guest migrations
// directly against the database.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/config"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/database"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/logging"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/spf13/cobra"
)

// storeOpener returns the store commands run against and a func releasing it.
type storeOpener func() (store.Store, func(), error)

func openDatabaseStore() (store.Store, func(), error) {
	cfg := config.Load()
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return store.NewGormStore(db), closeFn, nil
}

func newRootCmd(open storeOpener) *cobra.Command {
	var jsonOutput bool

	root := &cobra.Command{
		Use:           "auratask-admin",
		Short:         "Operator tools for AuraTask identities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	out := func(cmd *cobra.Command, v interface{}, text string) error {
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), v)
		}
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}

	root.AddCommand(newMigrateCmd(open, out), newShowCmd(open, out))
	return root
}

type outputFunc func(cmd *cobra.Command, v interface{}, text string) error

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	logging.Setup(os.Getenv("APP_ENV"))

	if err := newRootCmd(openDatabaseStore).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
