package net

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
)

const maxDumpSize = 4096

// PrintHTTPResponse logs the response at debug level.
func PrintHTTPResponse(resp *http.Response) {
	if resp == nil || !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		if len(respDump) > maxDumpSize {
			respDump = respDump[:maxDumpSize]
		}
		slog.Debug("http response", "dump", string(respDump))
	}
}
