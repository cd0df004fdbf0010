package net

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/pkg/errors"
)

var ErrURLNotFound = errors.New("URL not found")

// Fetch opens the content at url. A non-empty token is sent as a bearer
// token. The caller closes the returned body.
func Fetch(ctx context.Context, url, token string) (io.ReadCloser, error) {
	c, err := getClient(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "error creating HTTP client")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error creating HTTP Get request")
	}
	req.Header.Set("User-Agent", clientAgent)

	slog.Debug("fetching", "url", url, "auth", token != "")
	resp, err := c.Do(req) //nolint:gosec // URL is provided by the user running the CLI
	if err != nil {
		return nil, errors.Wrapf(err, "error executing HTTP Get request: %s", url)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, errors.Wrap(ErrURLNotFound, url)
	default:
		PrintHTTPResponse(resp)
		resp.Body.Close()
		return nil, errors.Errorf("error downloading file (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}
}

// Download saves the content at url to path.
func Download(ctx context.Context, url, path, token string) (retErr error) {
	body, err := Fetch(ctx, url, token)
	if err != nil {
		return err
	}
	defer body.Close()

	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "error creating file: %s", path)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = errors.Wrap(cerr, "closing file")
		}
	}()

	if _, err = io.Copy(out, body); err != nil {
		return errors.Wrap(err, "error saving downloaded content to file")
	}

	return nil
}
