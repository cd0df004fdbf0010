package net

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// GetJSON retrieves the content at url and decodes it into target.
func GetJSON[T any](ctx context.Context, url, token string, target *T) error {
	body, err := Fetch(ctx, url, token)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return errors.Wrap(err, "error decoding content")
	}
	return nil
}
