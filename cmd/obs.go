package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/internal/app"
	"github.com/f0rbit/corpus/internal/render"
	"github.com/f0rbit/corpus/obs"
)

var obsCmd = &cobra.Command{
	Use:   "obs",
	Short: "Inspect and manage observations",
}

// obsClient builds the observations client, failing when the configured
// backend has no observations support.
func obsClient(deps *app.Deps) (*obs.Client, error) {
	adapter := deps.Corpus.Observations()
	if adapter == nil {
		return nil, fmt.Errorf("backend %q has no observations support", deps.Config.Backend)
	}
	return obs.NewClient(adapter, deps.Corpus.Backend().Metadata(), nil), nil
}

var obsListFlags struct {
	Type         string
	SourceStore  string
	SourceVer    string
	IncludeStale bool
	Limit        int
}

var obsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List observations, newest first (stale ones hidden by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		client, err := obsClient(deps)
		if err != nil {
			return err
		}

		opts := obs.QueryOptions{
			Type:          obsListFlags.Type,
			SourceStore:   obsListFlags.SourceStore,
			SourceVersion: obsListFlags.SourceVer,
			IncludeStale:  obsListFlags.IncludeStale,
		}
		if obsListFlags.Limit >= 0 {
			opts.Limit = corpus.Limit(obsListFlags.Limit)
		}
		metas, err := client.QueryMeta(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return render.Observations(os.Stdout, deps.Config.Format, metas)
	},
}

var obsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one observation with its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		client, err := obsClient(deps)
		if err != nil {
			return err
		}

		// Untyped fetch: content stays raw JSON.
		o, err := obs.Get(cmd.Context(), client, obs.TypeDef[json.RawMessage]{}, args[0])
		if err != nil {
			return err
		}
		return render.Value(os.Stdout, map[string]any{
			"id":           o.ID,
			"type":         o.Type,
			"source":       o.Source,
			"content":      o.Content,
			"confidence":   o.Confidence,
			"observed_at":  o.ObservedAt,
			"created_at":   o.CreatedAt,
			"derived_from": o.DerivedFrom,
		})
	},
}

var obsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one observation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		client, err := obsClient(deps)
		if err != nil {
			return err
		}
		if err := client.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var obsPruneCmd = &cobra.Command{
	Use:   "prune <pointer>",
	Short: "Delete all observations on a pointer (store:version[:path])",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		client, err := obsClient(deps)
		if err != nil {
			return err
		}
		pointer, err := corpus.ParsePointerKey(args[0])
		if err != nil {
			return err
		}
		n, err := client.DeleteBySource(cmd.Context(), pointer)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d observation(s)\n", n)
		return nil
	},
}

func init() {
	obsListCmd.Flags().StringVar(&obsListFlags.Type, "type", "", "filter by observation type")
	obsListCmd.Flags().StringVar(&obsListFlags.SourceStore, "source-store", "", "filter by source store id")
	obsListCmd.Flags().StringVar(&obsListFlags.SourceVer, "source-version", "", "filter by source version")
	obsListCmd.Flags().BoolVar(&obsListFlags.IncludeStale, "include-stale", false, "include observations on superseded versions")
	obsListCmd.Flags().IntVar(&obsListFlags.Limit, "limit", -1, "max rows (-1 = unlimited)")

	obsCmd.AddCommand(obsListCmd, obsGetCmd, obsDeleteCmd, obsPruneCmd)
	rootCmd.AddCommand(obsCmd)
}
