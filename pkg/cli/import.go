package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/mchmarny/alphavote/pkg/cvr"
	"github.com/mchmarny/alphavote/pkg/data"
	"github.com/urfave/cli/v3"
)

const (
	flagName    = "name"
	flagReplace = "replace"
	flagOutput  = "output"
)

func newImportCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    flagName,
			Aliases: []string{"n"},
			Usage:   "Name to store the election under (default: input file name)",
		},
		&cli.BoolFlag{
			Name:  flagReplace,
			Usage: "Replace a stored election with the same name",
		},
	}
	flags = append(flags, newInputFlags(true)...)

	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Store elections from an election file, document or CVR export",
		UsageText: `alphavote import --file ballots.csv --name board      # store one election
   alphavote import --file cvr.csv --cvr --name mayor     # convert and store a CVR export
   alphavote import --url https://example.com/e.json       # store every election of a document`,
		Action: cmdImport,
		Flags:  flags,
	}
}

func newConvertCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Usage:   "Path of the election file to write (default: stdout)",
		},
	}
	flags = append(flags, newInputFlags(false)...)

	return &cli.Command{
		Name:    "convert",
		Aliases: []string{"c"},
		Usage:   "Convert a CVR export into an election file",
		Action:  cmdConvert,
		Flags:   flags,
	}
}

// ImportResult describes what import stored.
type ImportResult struct {
	Source    string           `json:"source" yaml:"source"`
	Elections []*data.Election `json:"elections" yaml:"elections"`
	CVR       *cvr.Summary     `json:"cvr,omitempty" yaml:"cvr,omitempty"`
	Duration  string           `json:"duration" yaml:"duration"`
}

func cmdImport(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()

	in, err := readInput(ctx, cmd, cmd.Bool(flagCVR))
	if err != nil {
		return err
	}

	name := cmd.String(flagName)
	if name == "" {
		name = nameFromSource(in.Source)
	}

	db, err := getConfig(cmd).DB()
	if err != nil {
		return err
	}

	res := &ImportResult{
		Source:    in.Source,
		Elections: make([]*data.Election, 0, len(in.Sets)),
		CVR:       in.Summary,
	}

	for i, set := range in.Sets {
		n := name
		if len(in.Sets) > 1 {
			n = fmt.Sprintf("%s-%d", name, i+1)
		}
		e, err := data.SaveElection(db, n, in.Source, set, cmd.Bool(flagReplace))
		if err != nil {
			return fmt.Errorf("storing election %s: %w", n, err)
		}
		slog.Debug("election stored", "name", e.Name, "ballots", e.Ballots, "candidates", e.Candidates)
		res.Elections = append(res.Elections, e)
	}

	res.Duration = time.Since(start).String()
	return encode(cmd, res)
}

func cmdConvert(ctx context.Context, cmd *cli.Command) error {
	in, err := readInput(ctx, cmd, true)
	if err != nil {
		return err
	}

	out := cmd.String(flagOutput)
	if out == "" {
		return ballot.Write(cmd.Root().Writer, in.Sets[0])
	}

	if err := writeFile(out, func(w io.Writer) error {
		return ballot.Write(w, in.Sets[0])
	}); err != nil {
		return err
	}

	slog.Debug("election file written", "path", out, "rankings", in.Summary.Rankings)
	return encode(cmd, in.Summary)
}

// nameFromSource derives an election name from a file path or URL.
func nameFromSource(source string) string {
	base := path.Base(urlPath(source))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		return "election"
	}
	return base
}
