package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/mchmarny/alphavote/pkg/config"
	"github.com/mchmarny/alphavote/pkg/data"
	"github.com/mchmarny/alphavote/pkg/election"
	"github.com/urfave/cli/v3"
)

const (
	flagElection = "election"
	flagWinners  = "winners"
	flagAlpha    = "alpha"
	flagMaxAlpha = "max-alpha"
	flagMatrix   = "matrix"
	flagSave     = "save"
)

func newElectionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagElection,
		Aliases: []string{"e"},
		Usage:   "Name of a stored election",
	}
}

func newElectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    flagWinners,
			Aliases: []string{"k"},
			Usage:   fmt.Sprintf("Number of seats to fill (default from config: %d)", config.DefaultWinners),
		},
		&cli.FloatFlag{
			Name:  flagAlpha,
			Usage: fmt.Sprintf("Starting distance sensitivity (default from config: %v)", election.DefaultAlpha),
		},
		&cli.FloatFlag{
			Name:  flagMaxAlpha,
			Usage: fmt.Sprintf("Alpha ceiling, 'inf' for none (default from config: %v)", election.DefaultMaxAlpha),
		},
	}
}

func newRunCmd() *cli.Command {
	flags := []cli.Flag{
		newElectionFlag(),
		&cli.BoolFlag{
			Name:  flagMatrix,
			Usage: "Include the pairwise matrix of every round",
		},
		&cli.BoolFlag{
			Name:  flagSave,
			Usage: "Store the result of a stored --election",
		},
	}
	flags = append(flags, newInputFlags(true)...)
	flags = append(flags, newElectionFlags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Resolve the winners of an election",
		UsageText: `alphavote run --file ballots.csv --winners 3         # resolve every election in a file
   alphavote run --election board --save               # resolve and store a stored election
   alphavote run --file ballots.csv --max-alpha inf    # escalate without a ceiling`,
		Action: cmdRun,
		Flags:  flags,
	}
}

// RunReport is the outcome of one election. Winners holds TIE in place of
// the seat a tied round could not fill. MaxAlpha is omitted when unbounded.
type RunReport struct {
	Election string             `json:"election,omitempty" yaml:"election,omitempty"`
	Winners  []string           `json:"winners" yaml:"winners"`
	Tie      bool               `json:"tie" yaml:"tie"`
	Seats    int                `json:"seats" yaml:"seats"`
	Alpha    float64            `json:"alpha" yaml:"alpha"`
	MaxAlpha *float64           `json:"max_alpha,omitempty" yaml:"maxAlpha,omitempty"`
	Attempts int                `json:"attempts" yaml:"attempts"`
	Rounds   []*election.Round  `json:"rounds" yaml:"rounds"`
	Matrices []*election.Matrix `json:"matrices,omitempty" yaml:"matrices,omitempty"`
	ResultID string             `json:"result_id,omitempty" yaml:"resultId,omitempty"`
}

func cmdRun(ctx context.Context, cmd *cli.Command) error {
	cfg, err := electionConfig(cmd)
	if err != nil {
		return err
	}
	matrix := cmd.Bool(flagMatrix)

	if name := cmd.String(flagElection); name != "" {
		rep, err := runStored(cmd, name, cfg, matrix, cmd.Bool(flagSave))
		if err != nil {
			return err
		}
		return encode(cmd, rep)
	}

	if cmd.Bool(flagSave) {
		return errors.New("--save requires a stored --election, use import first")
	}

	in, err := readInput(ctx, cmd, cmd.Bool(flagCVR))
	if err != nil {
		return err
	}

	list := make([]*RunReport, 0, len(in.Sets))
	for i, set := range in.Sets {
		rep, _, err := runElection(set, cfg, matrix)
		if err != nil {
			return fmt.Errorf("election %d: %w", i+1, err)
		}
		list = append(list, rep)
	}

	if len(list) == 1 {
		return encode(cmd, list[0])
	}
	return encode(cmd, list)
}

func runStored(cmd *cli.Command, name string, cfg election.Config, matrix, save bool) (*RunReport, error) {
	db, err := getConfig(cmd).DB()
	if err != nil {
		return nil, err
	}
	return runStoredElection(db, name, cfg, matrix, save)
}

func runElection(set *ballot.Set, cfg election.Config, matrix bool) (*RunReport, *election.Result, error) {
	res, err := election.Run(set, cfg)
	if err != nil {
		return nil, nil, err
	}

	rep := &RunReport{
		Winners:  res.Slots(),
		Tie:      res.Tie,
		Seats:    cfg.Winners,
		Alpha:    cfg.Alpha,
		MaxAlpha: finite(cfg.MaxAlpha),
		Attempts: res.Attempts(),
		Rounds:   res.Rounds,
	}
	if matrix {
		rep.Matrices = election.Matrices(set, res)
	}

	slog.Debug("election resolved", "winners", rep.Winners, "tie", rep.Tie, "attempts", rep.Attempts)
	return rep, res, nil
}

// electionConfig applies the election flags over the configured values.
func electionConfig(cmd *cli.Command) (election.Config, error) {
	cfg := getConfig(cmd).Config.Election()
	if cmd.IsSet(flagWinners) {
		cfg.Winners = cmd.Int(flagWinners)
	}
	if cmd.IsSet(flagAlpha) {
		cfg.Alpha = cmd.Float(flagAlpha)
	}
	if cmd.IsSet(flagMaxAlpha) {
		cfg.MaxAlpha = cmd.Float(flagMaxAlpha)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func runStoredElection(db *sql.DB, name string, cfg election.Config, matrix, save bool) (*RunReport, error) {
	e, err := data.GetElection(db, name)
	if err != nil {
		return nil, checkStored(err, name)
	}
	set, err := data.GetBallots(db, e.ID)
	if err != nil {
		return nil, fmt.Errorf("loading ballots of %s: %w", name, err)
	}

	rep, res, err := runElection(set, cfg, matrix)
	if err != nil {
		return nil, err
	}
	rep.Election = e.Name

	if save {
		r, err := data.SaveResult(db, e.ID, cfg, res)
		if err != nil {
			return nil, fmt.Errorf("saving result: %w", err)
		}
		rep.ResultID = r.ID
		slog.Debug("result saved", "election", e.Name, "id", r.ID)
	}
	return rep, nil
}

func checkStored(err error, name string) error {
	if errors.Is(err, data.ErrNotFound) {
		return fmt.Errorf("election %q not found, use list to see stored elections: %w", name, err)
	}
	return err
}
