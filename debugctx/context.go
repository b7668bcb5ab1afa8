// Package debugctx carries wire-level debug tracing through a context.
// Tracing is off unless a writer was attached with Enable.
package debugctx

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

type sinkKey struct{}

type sink struct {
	mu     sync.Mutex
	writer io.Writer
}

// Enable returns a context whose Printf calls write to writer. A nil writer
// leaves ctx unchanged.
func Enable(ctx context.Context, writer io.Writer) context.Context {
	if writer == nil {
		return ctx
	}
	return context.WithValue(ctx, sinkKey{}, &sink{writer: writer})
}

func Enabled(ctx context.Context) bool {
	return sinkFrom(ctx) != nil
}

// Printf writes one "debug: " prefixed line. Concurrent callers sharing a
// context never interleave their lines.
func Printf(ctx context.Context, format string, args ...any) {
	target := sinkFrom(ctx)
	if target == nil {
		return
	}

	message := strings.TrimSpace(fmt.Sprintf(format, args...))
	if message == "" {
		return
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	_, _ = fmt.Fprintf(target.writer, "debug: %s\n", message)
}

// RedactURL drops userinfo and masks query values that may carry secrets.
// Harbor name filters (name, q, reference_id) and paging stay readable.
func RedactURL(value *url.URL) string {
	if value == nil {
		return ""
	}

	cloned := *value
	cloned.User = nil

	query := cloned.Query()
	if len(query) > 0 {
		for key, values := range query {
			if readableQueryKeys[key] {
				continue
			}
			redacted := make([]string, len(values))
			for idx := range values {
				redacted[idx] = "<redacted>"
			}
			query[key] = redacted
		}
		cloned.RawQuery = query.Encode()
	}

	return cloned.String()
}

var readableQueryKeys = map[string]bool{
	"name":         true,
	"q":            true,
	"reference_id": true,
	"page":         true,
	"page_size":    true,
}

func sinkFrom(ctx context.Context) *sink {
	if ctx == nil {
		return nil
	}
	target, _ := ctx.Value(sinkKey{}).(*sink)
	return target
}
