package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/zalando/go-keyring"
)

const (
	tokenFileName  = "token"
	tokenFileMode  = 0600
	keyringService = appName
	keyringUser    = "portal_token"

	flagClear = "clear"
)

func newAuthCmd() *cli.Command {
	return &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Save the bearer token used to download elections with --url",
		UsageText: `alphavote auth --token $TOKEN   # save the token
   echo $TOKEN | alphavote auth     # read the token from stdin
   alphavote auth --clear          # remove the saved token`,
		Action: cmdAuth,
		Flags: []cli.Flag{
			newTokenFlag(),
			&cli.BoolFlag{
				Name:  flagClear,
				Usage: "Remove the saved token",
			},
		},
	}
}

func cmdAuth(_ context.Context, cmd *cli.Command) error {
	dir := getConfig(cmd).Dir

	if cmd.Bool(flagClear) {
		if err := deleteToken(dir); err != nil {
			return fmt.Errorf("removing token: %w", err)
		}
		fmt.Fprintln(cmd.Root().Writer, "Token removed")
		return nil
	}

	token := cmd.String(flagToken)
	if token == "" {
		fmt.Fprint(cmd.Root().Writer, "Token: ")
		line, err := bufio.NewReader(cmd.Root().Reader).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading token: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return errors.New("token required")
	}

	if err := saveToken(dir, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(cmd.Root().Writer, "Token saved")
	return nil
}

func saveToken(dir, token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveTokenFile(dir, token)
	}

	// keychain holds the token now
	os.Remove(tokenPath(dir))

	return nil
}

func getToken(dir string) (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	token, err = getTokenFile(dir)
	if err != nil {
		return "", err
	}

	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		os.Remove(tokenPath(dir))
	}

	return token, nil
}

func deleteToken(dir string) error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("keychain delete failed", "error", err)
	}
	if err := os.Remove(tokenPath(dir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting token file: %w", err)
	}
	return nil
}

func tokenPath(dir string) string {
	return filepath.Join(dir, tokenFileName)
}

func saveTokenFile(dir, token string) error {
	return os.WriteFile(tokenPath(dir), []byte(token), tokenFileMode)
}

func getTokenFile(dir string) (string, error) {
	p := tokenPath(dir)
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", p, err)
	}
	t := strings.TrimSpace(string(b))
	if t == "" {
		return "", fmt.Errorf("empty token file: %s", p)
	}
	return t, nil
}
