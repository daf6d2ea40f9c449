package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"videorank/internal/model"

	"github.com/spf13/cobra"
)

type voteOutput struct {
	Video   int64   `yaml:"video"`
	User    int64   `yaml:"user"`
	Changed bool    `yaml:"changed"`
	State   string  `yaml:"state"`
	Score   float64 `yaml:"score"`
}

func parseVoteArgs(args []string) (video, user int64, err error) {
	if video, err = strconv.ParseInt(args[0], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid video id %q", args[0])
	}
	if user, err = strconv.ParseInt(args[1], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid user id %q", args[1])
	}
	return video, user, nil
}

// runVote executes Vote or Unvote depending on up.
func runVote(cmd *cobra.Command, args []string, up bool) error {
	video, user, err := parseVoteArgs(args)
	if err != nil {
		return err
	}
	cfg := GetConfig()
	engine, rdb := newEngine(cfg)
	defer rdb.Close()

	call := engine.Vote
	if !up {
		call = engine.Unvote
	}
	var res model.VoteResult
	if res, err = call(cmd.Context(), video, user); err != nil {
		return err
	}
	out := voteOutput{Video: video, User: user, Changed: res.Changed, State: res.State.String(), Score: res.Score}
	return render(cmd.OutOrStdout(), out, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "VIDEO\tUSER\tSTATE\tCHANGED\tSCORE")
		fmt.Fprintf(tw, "%d\t%d\t%s\t%t\t%s\n", out.Video, out.User, out.State, out.Changed, formatScore(out.Score))
	})
}

var voteCmd = &cobra.Command{
	Use:   "vote <video-id> <user-id>",
	Short: "Upvote a video; repeating it is a no-op",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVote(cmd, args, true)
	},
}

var unvoteCmd = &cobra.Command{
	Use:   "unvote <video-id> <user-id>",
	Short: "Downvote a video; repeating it is a no-op",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVote(cmd, args, false)
	},
}

var voteStateCmd = &cobra.Command{
	Use:   "state <video-id> <user-id>",
	Short: "Print whether a user has upvoted or downvoted a video",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		video, user, err := parseVoteArgs(args)
		if err != nil {
			return err
		}
		cfg := GetConfig()
		engine, rdb := newEngine(cfg)
		defer rdb.Close()

		st, err := engine.VoteState(cmd.Context(), video, user)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), st)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(voteCmd, unvoteCmd, voteStateCmd)
}
