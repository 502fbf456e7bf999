package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/internal/render"
)

var listFlags struct {
	Store  string
	Tags   []string
	Limit  int
	Before string
	After  string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshot versions of a store, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		opts := corpus.ListOptions{Tags: listFlags.Tags}
		if listFlags.Limit >= 0 {
			opts.Limit = corpus.Limit(listFlags.Limit)
		}
		if listFlags.Before != "" {
			t, err := render.ParseInstant(listFlags.Before)
			if err != nil {
				return err
			}
			opts.Before = &t
		}
		if listFlags.After != "" {
			t, err := render.ParseInstant(listFlags.After)
			if err != nil {
				return err
			}
			opts.After = &t
		}

		store := openStore(deps, listFlags.Store)
		metas, err := store.List(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return render.Metas(os.Stdout, deps.Config.Format, metas)
	},
}

func init() {
	listCmd.Flags().StringVar(&listFlags.Store, "store", "", "store id (required)")
	listCmd.Flags().StringArrayVar(&listFlags.Tags, "tag", nil, "require tag (repeatable, all must match)")
	listCmd.Flags().IntVar(&listFlags.Limit, "limit", -1, "max rows (-1 = unlimited)")
	listCmd.Flags().StringVar(&listFlags.Before, "before", "", "only versions created strictly before this instant")
	listCmd.Flags().StringVar(&listFlags.After, "after", "", "only versions created strictly after this instant")
	listCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(listCmd)
}
