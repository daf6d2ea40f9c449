package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"videorank/internal/model"

	"github.com/spf13/cobra"
)

// videoCmd groups catalog subcommands.
var videoCmd = &cobra.Command{
	Use:   "video",
	Short: "Create and inspect videos",
}

var videoCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a video to the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		engine, rdb := newEngine(cfg)
		defer rdb.Close()

		title, _ := cmd.Flags().GetString("title")
		url, _ := cmd.Flags().GetString("url")
		poster, _ := cmd.Flags().GetInt64("poster")
		createdAt := time.Now()
		if s, _ := cmd.Flags().GetString("created-at"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return fmt.Errorf("invalid --created-at: %w", err)
			}
			createdAt = t
		}

		id, err := engine.CreateVideo(cmd.Context(), title, url, poster, createdAt)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var videoShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid video id %q", args[0])
		}
		cfg := GetConfig()
		engine, rdb := newEngine(cfg)
		defer rdb.Close()

		v, err := engine.GetVideo(cmd.Context(), id)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), v, func(tw *tabwriter.Writer) {
			fmt.Fprintf(tw, "ID\t%d\n", v.ID)
			fmt.Fprintf(tw, "TITLE\t%s\n", v.Title)
			fmt.Fprintf(tw, "URL\t%s\n", v.URL)
			fmt.Fprintf(tw, "POSTER\t%d\n", v.PosterID)
			fmt.Fprintf(tw, "CREATED\t%s\n", v.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(tw, "VOTES\t%d\n", v.Votes)
			fmt.Fprintf(tw, "UNVOTES\t%d\n", v.Unvotes)
		})
	},
}

var videoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of videos from a ranking index",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("index")
		idx, err := model.ParseIndex(name)
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		cfg := GetConfig()
		engine, rdb := newEngine(cfg)
		defer rdb.Close()

		videos, err := engine.RankedVideos(cmd.Context(), page, perPage, idx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), videos, func(tw *tabwriter.Writer) {
			videoTable(tw, videos)
		})
	},
}

func init() {
	videoCreateCmd.Flags().String("title", "", "video title")
	videoCreateCmd.Flags().String("url", "", "video url")
	videoCreateCmd.Flags().Int64("poster", 0, "poster user id")
	videoCreateCmd.Flags().String("created-at", "", "creation time as RFC3339 (default: now)")
	_ = videoCreateCmd.MarkFlagRequired("title")

	videoListCmd.Flags().String("index", "score", "ranking index: score, time or hot")
	videoListCmd.Flags().Int("page", 1, "page number, starting at 1")
	videoListCmd.Flags().Int("per-page", 20, "videos per page")

	videoCmd.AddCommand(videoCreateCmd, videoShowCmd, videoListCmd)
	rootCmd.AddCommand(videoCmd)
}
