package net

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
	clientAgent      = "alphavote"
)

var reqTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          maxIdleConns,
	IdleConnTimeout:       timeoutInSeconds * time.Second,
	DisableCompression:    true,
	ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
}

// GetHTTPClient returns an anonymous client.
func GetHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error creating cookie jar")
	}
	return &http.Client{
		Transport: reqTransport,
		Jar:       jar,
		Timeout:   timeoutInSeconds * time.Second,
	}, nil
}

// GetOAuthClient returns a client that sends token as a bearer token.
func GetOAuthClient(ctx context.Context, token string) *http.Client {
	base := &http.Client{
		Transport: reqTransport,
		Timeout:   timeoutInSeconds * time.Second,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{
			TokenType:   "Bearer",
			AccessToken: token,
		},
	)
	return oauth2.NewClient(ctx, ts)
}

func getClient(ctx context.Context, token string) (*http.Client, error) {
	if token != "" {
		return GetOAuthClient(ctx, token), nil
	}
	return GetHTTPClient()
}
