package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loopstate/core/internal/daemon"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the local store",
	Long:  `Opens the local store, running its idempotent schema migrations, then exits.`,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	fmt.Println("schema up to date")
	return nil
}
