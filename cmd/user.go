package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// userCmd groups voter subcommands.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Create and inspect users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Register a user and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		engine, rdb := newEngine(cfg)
		defer rdb.Close()

		id, err := engine.CreateUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		cfg := GetConfig()
		engine, rdb := newEngine(cfg)
		defer rdb.Close()

		u, err := engine.GetUser(cmd.Context(), id)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), u, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tUSERNAME")
			fmt.Fprintf(tw, "%d\t%s\n", u.ID, u.Username)
		})
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd, userShowCmd)
	rootCmd.AddCommand(userCmd)
}
