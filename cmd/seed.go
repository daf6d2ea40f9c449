package cmd

import (
	"fmt"
	"text/tabwriter"

	"videorank/internal/fixture"

	"github.com/spf13/cobra"
)

// seedCmd fills the catalog with synthetic users, videos and votes.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate reproducible fixture data",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		engine, rdb := newEngine(cfg)
		defer rdb.Close()

		opts := fixture.OptionsFromConfig(cfg.Fixture)
		if cmd.Flags().Changed("seed") {
			opts.Seed, _ = cmd.Flags().GetUint64("seed")
		}
		if cmd.Flags().Changed("videos") {
			opts.Videos, _ = cmd.Flags().GetInt("videos")
		}
		if cmd.Flags().Changed("votes") {
			opts.Votes, _ = cmd.Flags().GetInt("votes")
		}

		sum, err := fixture.NewGenerator(engine, opts).Run(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), sum, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "USERS\tVIDEOS\tVIDEO IDS\tUPVOTES\tUNVOTES\tNOOPS")
			fmt.Fprintf(tw, "%d\t%d\t%d-%d\t%d\t%d\t%d\n",
				sum.Users, sum.Videos, sum.FirstID, sum.LastID, sum.Upvotes, sum.Unvotes, sum.Noops)
		})
	},
}

func init() {
	seedCmd.Flags().Uint64("seed", 0, "random seed (default: fixture.seed)")
	seedCmd.Flags().Int("videos", 0, "number of videos (default: fixture.videos)")
	seedCmd.Flags().Int("votes", 0, "number of vote actions (default: fixture.votes)")
	rootCmd.AddCommand(seedCmd)
}
