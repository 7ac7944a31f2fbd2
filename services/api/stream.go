package apisvc

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/trezcool/appraise/core/livelist"
	"github.com/trezcool/appraise/services/sse"
)

// UsersStream opens the users feed. The token travels as a query parameter
// because EventSource clients cannot set headers.
func (c *Client) UsersStream(token string) livelist.Opener {
	return livelist.OpenerFunc(func(ctx context.Context) (livelist.Stream, error) {
		path := withQuery(c.streamPath, url.Values{"token": {token}})
		req, err := c.newRequest(ctx, http.MethodGet, path, "", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := c.send(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			defer func() { _ = resp.Body.Close() }()
			return nil, c.serverError(resp, token)
		}
		c.logger.Debug("users stream opened", req.Header.Get(requestIDHeader))
		return &eventStream{body: resp.Body, scanner: sse.NewScanner(resp.Body)}, nil
	})
}

// eventStream adapts an SSE response body to livelist.Stream.
type eventStream struct {
	body    io.ReadCloser
	scanner *sse.Scanner
}

var _ livelist.Stream = (*eventStream)(nil)

func (s *eventStream) Next() bool { return s.scanner.Next() }

func (s *eventStream) Frame() livelist.Frame {
	ev := s.scanner.Event()
	name := ev.Type
	if name == "" {
		name = "message"
	}
	return livelist.Frame{Name: name, Data: ev.Data}
}

func (s *eventStream) Err() error { return s.scanner.Err() }

func (s *eventStream) Close() error { return s.body.Close() }
