package timeclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

// StreamPath is appended to the API path for the push endpoint
const StreamPath = APIPath + "/stream"

// StreamURL derives the websocket URL from an /api/time endpoint
func StreamURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	u.Path += "/stream"
	return u.String(), nil
}

// Stream subscribes to the server's time push and renders every frame into
// the display target until ctx is cancelled or the server closes the stream.
// A dial or read failure is reported once and ends the stream; there is no
// reconnect.
func (c *Client) Stream(ctx context.Context) error {
	wsURL, err := StreamURL(c.endpoint)
	if err != nil {
		ferr := c.fail("dial", 0, err)
		c.diag.Report(ferr)
		return ferr
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		ferr := c.fail("dial", 0, err)
		c.diag.Report(ferr)
		return ferr
	}
	defer conn.Close()
	c.logger.Info("Subscribed to time stream", "url", wsURL)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("Time stream closed")
				return nil
			}
			ferr := c.fail("read", 0, err)
			c.diag.Report(ferr)
			return ferr
		}

		start := time.Now()
		if msgType != websocket.TextMessage || !utf8.Valid(msg) {
			err = c.fail("decode", 0, errors.New("stream frame is not valid UTF-8 text"))
		} else {
			err = c.target.SetText(string(msg))
		}

		if c.observer != nil {
			c.observer.ObserveRefresh(time.Since(start), err)
		}
		if err != nil {
			c.diag.Report(err)
		}
	}
}
