package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/mchmarny/alphavote/pkg/election"
	"github.com/mchmarny/alphavote/pkg/generate"
	"github.com/mchmarny/alphavote/pkg/sweep"
	"github.com/urfave/cli/v3"
)

const (
	flagVoters     = "voters"
	flagCandidates = "candidates"
	flagMaxUnique  = "max-unique"
	flagMinLength  = "min-length"
	flagMaxLength  = "max-length"
	flagElections  = "elections"
	flagSeed       = "seed"
	flagType       = "type"
	flagSteps      = "steps"
	flagWorkers    = "workers"
)

func newGeneratorFlags() []cli.Flag {
	def := generate.DefaultParams()
	return []cli.Flag{
		&cli.IntFlag{
			Name:  flagVoters,
			Usage: "Number of voters per election",
			Value: def.Voters,
		},
		&cli.IntFlag{
			Name:  flagCandidates,
			Usage: "Number of candidates",
			Value: def.Candidates,
		},
		&cli.IntFlag{
			Name:  flagMaxUnique,
			Usage: "Maximum number of distinct rankings per election (0: no limit)",
		},
		&cli.IntFlag{
			Name:  flagMinLength,
			Usage: "Shortest ranking (0: number of candidates)",
		},
		&cli.IntFlag{
			Name:  flagMaxLength,
			Usage: "Longest ranking (0: number of candidates)",
		},
		&cli.IntFlag{
			Name:  flagElections,
			Usage: "Number of elections",
			Value: def.Elections,
		},
		&cli.IntFlag{
			Name:  flagSeed,
			Usage: "Random seed, the same seed yields the same elections (0: random)",
		},
	}
}

func newGenerateCmd() *cli.Command {
	flags := newGeneratorFlags()
	flags = append(flags,
		&cli.StringFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Usage:   "Path of the file to write (default: stdout)",
		},
		&cli.StringFlag{
			Name:  flagType,
			Usage: "Output type [csv, json, yaml] (default: output file extension or --format)",
		},
	)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"g"},
		Usage:   "Generate random elections",
		UsageText: `alphavote generate --voters 1000 --candidates 5 --elections 100 --output e.json
   alphavote generate --candidates 4 --min-length 1 --type csv`,
		Action: cmdGenerate,
		Flags:  flags,
	}
}

func newSweepCmd() *cli.Command {
	def := sweep.DefaultParams()
	flags := newGeneratorFlags()
	flags = append(flags, newInputFlags(true)...)
	flags = append(flags,
		&cli.IntFlag{
			Name:    flagWinners,
			Aliases: []string{"k"},
			Usage:   "Number of seats to fill",
			Value:   def.Winners,
		},
		&cli.FloatFlag{
			Name:  flagAlpha,
			Usage: "Starting distance sensitivity",
			Value: def.Alpha,
		},
		&cli.IntFlag{
			Name:  flagSteps,
			Usage: "Number of ceilings, step n uses alpha*2^n",
			Value: def.Steps,
		},
		&cli.IntFlag{
			Name:  flagWorkers,
			Usage: "Number of elections resolved concurrently",
			Value: runtime.NumCPU(),
		},
	)

	return &cli.Command{
		Name:    "sweep",
		Aliases: []string{"s"},
		Usage:   "Report how often elections tie as the alpha ceiling grows",
		UsageText: `alphavote sweep --elections 1000 --voters 100 --candidates 4   # over generated elections
   alphavote sweep --file elections.json --winners 2                # over elections in a file`,
		Action: cmdSweep,
		Flags:  flags,
	}
}

func generatorParams(cmd *cli.Command) (generate.Params, error) {
	seed := cmd.Int(flagSeed)
	if seed < 0 {
		return generate.Params{}, fmt.Errorf("seed must not be negative: %d", seed)
	}
	return generate.Params{
		Voters:     cmd.Int(flagVoters),
		Candidates: cmd.Int(flagCandidates),
		MaxUnique:  cmd.Int(flagMaxUnique),
		MinLength:  cmd.Int(flagMinLength),
		MaxLength:  cmd.Int(flagMaxLength),
		Elections:  cmd.Int(flagElections),
		Seed:       uint64(seed),
	}, nil
}

func cmdGenerate(_ context.Context, cmd *cli.Command) error {
	p, err := generatorParams(cmd)
	if err != nil {
		return err
	}

	d, err := generate.Generate(p)
	if err != nil {
		return err
	}

	out := cmd.String(flagOutput)
	format := cmd.String(flagType)
	if format == "" {
		format = getConfig(cmd).Format
		if out != "" {
			format = ballot.FormatFromPath(out)
		}
	}

	if out == "" {
		return ballot.Encode(cmd.Root().Writer, d, format)
	}

	if err := writeFile(out, func(w io.Writer) error {
		return ballot.Encode(w, d, format)
	}); err != nil {
		return err
	}
	slog.Info("elections generated", "path", out, "elections", len(d.Elections), "format", format)
	return nil
}

func cmdSweep(ctx context.Context, cmd *cli.Command) error {
	var sets []*ballot.Set
	in, err := readInput(ctx, cmd, cmd.Bool(flagCVR))
	switch {
	case err == nil:
		sets = in.Sets
	case errors.Is(err, errMissingInput):
		p, err := generatorParams(cmd)
		if err != nil {
			return err
		}
		d, err := generate.Generate(p)
		if err != nil {
			return err
		}
		if sets, err = d.Sets(); err != nil {
			return err
		}
	default:
		return err
	}

	p := sweep.Params{
		Winners: cmd.Int(flagWinners),
		Alpha:   cmd.Float(flagAlpha),
		Steps:   cmd.Int(flagSteps),
		Workers: cmd.Int(flagWorkers),
	}
	if err := election.DefaultConfig(p.Winners).Validate(); err != nil {
		return err
	}

	rep, err := sweep.Run(ctx, sets, p)
	if err != nil {
		return err
	}
	return encode(cmd, rep)
}
