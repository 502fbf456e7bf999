package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/f0rbit/corpus/internal/render"
)

var childrenFlags struct {
	Store string
}

var childrenCmd = &cobra.Command{
	Use:   "children <version>",
	Short: "List snapshots whose lineage includes the given version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		store := openStore(deps, childrenFlags.Store)
		metas, err := store.Children(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render.Metas(os.Stdout, deps.Config.Format, metas)
	},
}

func init() {
	childrenCmd.Flags().StringVar(&childrenFlags.Store, "store", "", "parent store id (required)")
	childrenCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(childrenCmd)
}
