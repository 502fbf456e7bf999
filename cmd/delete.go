package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteFlags struct {
	Store string
}

var deleteCmd = &cobra.Command{
	Use:   "delete <version>",
	Short: "Delete a snapshot's metadata (shared data blobs are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		store := openStore(deps, deleteFlags.Store)
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s@%s\n", deleteFlags.Store, args[0])
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteFlags.Store, "store", "", "store id (required)")
	deleteCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(deleteCmd)
}
