package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/internal/render"
)

var putFlags struct {
	Store   string
	Tags    []string
	Parents []string
}

var putCmd = &cobra.Command{
	Use:   "put [file]",
	Short: "Store a JSON payload as a new snapshot version",
	Long: `Store a JSON payload as a new snapshot version. The payload is read from
the named file, or from stdin when no file (or "-") is given. Identical
content is deduplicated against existing versions of the store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		payload, err := readPayload(args)
		if err != nil {
			return err
		}
		parents, err := parseParents(putFlags.Parents)
		if err != nil {
			return err
		}

		store := openStore(deps, putFlags.Store)
		meta, err := store.Put(cmd.Context(), payload, &corpus.PutOptions{
			Parents: parents,
			Tags:    putFlags.Tags,
		})
		if err != nil {
			return err
		}
		return render.Meta(os.Stdout, deps.Config.Format, meta)
	},
}

func init() {
	putCmd.Flags().StringVar(&putFlags.Store, "store", "", "store id (required)")
	putCmd.Flags().StringArrayVar(&putFlags.Tags, "tag", nil, "tag to attach (repeatable)")
	putCmd.Flags().StringArrayVar(&putFlags.Parents, "parent", nil, "lineage parent as store@version (repeatable)")
	putCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(putCmd)
}
