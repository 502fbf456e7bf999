package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/internal/render"
)

var getFlags struct {
	Store    string
	MetaOnly bool
}

var getCmd = &cobra.Command{
	Use:   "get [version]",
	Short: "Fetch a snapshot (latest when no version is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		store := openStore(deps, getFlags.Store)
		ctx := cmd.Context()

		if getFlags.MetaOnly && len(args) == 1 {
			meta, err := store.GetMeta(ctx, args[0])
			if err != nil {
				return err
			}
			return render.Meta(os.Stdout, deps.Config.Format, meta)
		}

		var snap corpus.Snapshot[any]
		if len(args) == 1 {
			snap, err = store.Get(ctx, args[0])
		} else {
			snap, err = store.GetLatest(ctx)
		}
		if err != nil {
			return err
		}
		if getFlags.MetaOnly {
			return render.Meta(os.Stdout, deps.Config.Format, snap.Meta)
		}
		return render.Value(os.Stdout, map[string]any{
			"meta": snap.Meta,
			"data": snap.Data,
		})
	},
}

func init() {
	getCmd.Flags().StringVar(&getFlags.Store, "store", "", "store id (required)")
	getCmd.Flags().BoolVar(&getFlags.MetaOnly, "meta", false, "print metadata only (the data blob is not read when a version is given)")
	getCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(getCmd)
}
