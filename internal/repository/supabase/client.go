// Package supabase backs the repositories with a Supabase project's PostgREST
// API through postgrest-go: /rest/v1/<table> for rows and /rest/v1/rpc/<fn>
// for store functions.
package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
)

// NewClient builds a PostgREST client for projectURL (e.g.
// https://xyz.supabase.co). The key is sent both as apikey and as the bearer
// token.
func NewClient(projectURL, apiKey string) (*postgrest.Client, error) {
	restURL := strings.TrimRight(projectURL, "/") + "/rest/v1"
	client := postgrest.NewClient(restURL, "public", map[string]string{"apikey": apiKey})
	if client.ClientError != nil {
		return nil, fmt.Errorf("invalid supabase url %q: %w", projectURL, client.ClientError)
	}
	return client.TokenAuth(apiKey), nil
}

type result struct {
	body []byte
	err  error
}

// execute runs fb, giving up when ctx is done or timeout elapses. postgrest-go
// requests carry no context, so an abandoned request finishes in the
// background and its result is discarded.
func execute(ctx context.Context, timeout time.Duration, fb *postgrest.FilterBuilder) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		body, _, err := fb.Execute()
		done <- result{body: body, err: err}
	}()

	select {
	case res := <-done:
		return res.body, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
