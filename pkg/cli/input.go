package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	neturl "net/url"
	"os"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/mchmarny/alphavote/pkg/cvr"
	"github.com/mchmarny/alphavote/pkg/net"
	"github.com/urfave/cli/v3"
)

const (
	tokenEnvVar = "ALPHAVOTE_TOKEN"

	flagFile        = "file"
	flagURL         = "url"
	flagToken       = "token"
	flagCVR         = "cvr"
	flagFirstColumn = "first-column"
	flagMarker      = "marker"
	flagDownload    = "download"
)

var errMissingInput = errors.New("either --file or --url is required")

func newTokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagToken,
		Usage:   "Bearer token used with --url (default: saved token)",
		Sources: cli.EnvVars(tokenEnvVar),
	}
}

// newInputFlags returns the flags read by readInput. The --cvr switch is
// left out for commands that always read CVR exports.
func newInputFlags(withCVR bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    flagFile,
			Aliases: []string{"f"},
			Usage:   "Path to the election file (csv, json or yaml)",
		},
		&cli.StringFlag{
			Name:  flagURL,
			Usage: "URL of the election file",
		},
		newTokenFlag(),
		&cli.StringFlag{
			Name:  flagDownload,
			Usage: "Save the --url content to this path and read it from there",
		},
		&cli.IntFlag{
			Name:  flagFirstColumn,
			Usage: "0-based index of the first ranking column of a CVR export (default from config)",
		},
		&cli.StringSliceFlag{
			Name:  flagMarker,
			Usage: "CVR cell value that does not name a candidate, repeatable (default from config)",
		},
	}
	if withCVR {
		flags = append(flags, &cli.BoolFlag{
			Name:  flagCVR,
			Usage: "Input is a cast vote record export",
		})
	}
	return flags
}

// input is what a command read from --file or --url.
type input struct {
	Source  string
	Sets    []*ballot.Set
	Summary *cvr.Summary
}

func readInput(ctx context.Context, cmd *cli.Command, asCVR bool) (*input, error) {
	path := cmd.String(flagFile)
	url := cmd.String(flagURL)

	switch {
	case path == "" && url == "":
		return nil, errMissingInput
	case path != "" && url != "":
		return nil, errors.New("--file and --url are mutually exclusive")
	}

	in := &input{Source: path}
	format := ballot.FormatFromPath(path)
	token := ""
	if url != "" {
		in.Source = url
		format = ballot.FormatFromPath(urlPath(url))
		token = resolveToken(cmd)

		if p := cmd.String(flagDownload); p != "" {
			if err := net.Download(ctx, url, p, token); err != nil {
				return nil, fmt.Errorf("downloading %s: %w", url, err)
			}
			slog.Debug("input downloaded", "url", url, "path", p)
			path, url = p, ""
		}
	}

	if asCVR {
		r, err := openSource(ctx, path, url, token)
		if err != nil {
			return nil, err
		}
		defer r.Close()

		set, sum, err := cvr.Convert(r, cvrOptions(cmd))
		if err != nil {
			return nil, fmt.Errorf("converting cvr %s: %w", in.Source, err)
		}
		in.Sets = []*ballot.Set{set}
		in.Summary = sum
		return in, nil
	}

	if url != "" && format == ballot.FormatJSON {
		var d ballot.Document
		if err := net.GetJSON(ctx, url, token, &d); err != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
		sets, err := d.Sets()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", url, err)
		}
		in.Sets = sets
		return in, nil
	}

	r, err := openSource(ctx, path, url, token)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sets, err := ballot.Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", in.Source, err)
	}
	in.Sets = sets
	slog.Debug("input read", "source", in.Source, "format", format, "elections", len(sets))
	return in, nil
}

func openSource(ctx context.Context, path, url, token string) (io.ReadCloser, error) {
	if url != "" {
		r, err := net.Fetch(ctx, url, token)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
		return r, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

func urlPath(raw string) string {
	u, err := neturl.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

// resolveToken returns the --token value or the saved token, if any.
func resolveToken(cmd *cli.Command) string {
	if t := cmd.String(flagToken); t != "" {
		return t
	}
	t, err := getToken(getConfig(cmd).Dir)
	if err != nil {
		slog.Debug("no saved token, using anonymous client", "error", err)
		return ""
	}
	return t
}

func cvrOptions(cmd *cli.Command) cvr.Options {
	opt := getConfig(cmd).Config.CVR
	if cmd.IsSet(flagFirstColumn) {
		opt.FirstColumn = cmd.Int(flagFirstColumn)
	}
	if m := cmd.StringSlice(flagMarker); len(m) > 0 {
		opt.Markers = m
	}
	return opt
}
