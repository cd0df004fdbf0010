package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mchmarny/alphavote/pkg/data"
	"github.com/urfave/cli/v3"
)

const (
	flagLimit = "limit"
	flagYes   = "yes"

	resultLimitDefault = 10
	resultLimitMax     = 500
)

func newListCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"l"},
		Usage:   "List stored elections",
		Action:  cmdList,
	}
}

func newResultsCmd() *cli.Command {
	return &cli.Command{
		Name:   "results",
		Usage:  "List stored results of an election, newest first",
		Action: cmdResults,
		Flags: []cli.Flag{
			newElectionFlag(),
			&cli.IntFlag{
				Name:  flagLimit,
				Usage: "Maximum number of results",
				Value: resultLimitDefault,
			},
		},
	}
}

func newDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:   "delete",
		Usage:  "Delete a stored election with its results",
		Action: cmdDelete,
		Flags: []cli.Flag{
			newElectionFlag(),
			&cli.BoolFlag{
				Name:    flagYes,
				Aliases: []string{"y"},
				Usage:   "Do not ask for confirmation",
			},
		},
	}
}

func cmdList(_ context.Context, cmd *cli.Command) error {
	db, err := getConfig(cmd).DB()
	if err != nil {
		return err
	}

	list, err := data.ListElections(db)
	if err != nil {
		return fmt.Errorf("failed to list elections: %w", err)
	}

	return encode(cmd, list)
}

func cmdResults(_ context.Context, cmd *cli.Command) error {
	name := cmd.String(flagElection)
	if name == "" {
		return cli.ShowSubcommandHelp(cmd)
	}

	limit := cmd.Int(flagLimit)
	if limit <= 0 || limit > resultLimitMax {
		limit = resultLimitMax
	}

	db, err := getConfig(cmd).DB()
	if err != nil {
		return err
	}

	e, err := data.GetElection(db, name)
	if err != nil {
		return checkStored(err, name)
	}

	list, err := data.ListResults(db, e.ID, limit)
	if err != nil {
		return fmt.Errorf("failed to list results of %s: %w", name, err)
	}

	return encode(cmd, list)
}

func cmdDelete(_ context.Context, cmd *cli.Command) error {
	name := cmd.String(flagElection)
	if name == "" {
		return cli.ShowSubcommandHelp(cmd)
	}

	db, err := getConfig(cmd).DB()
	if err != nil {
		return err
	}

	if _, err := data.GetElection(db, name); err != nil {
		return checkStored(err, name)
	}

	if !cmd.Bool(flagYes) {
		w := cmd.Root().Writer
		fmt.Fprintf(w, "This will permanently delete election %s and its results\n", name)
		fmt.Fprint(w, "Are you sure? [y/N]: ")

		answer, err := bufio.NewReader(cmd.Root().Reader).ReadString('\n')
		if err != nil && answer == "" {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	if err := data.DeleteElection(db, name); err != nil {
		return fmt.Errorf("deleting election: %w", err)
	}

	slog.Info("election deleted", "name", name)
	return nil
}
