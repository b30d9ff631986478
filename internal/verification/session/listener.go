package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Source delivers raw transport messages until ctx ends.
type Source interface {
	Listen(ctx context.Context, deliver func([]byte)) error
}

// SocketListener reads messages from a websocket relay. Each message is
// handed to deliver unparsed; the controller decides what counts as a
// completion marker.
type SocketListener struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *slog.Logger
}

func NewSocketListener(url string, header http.Header, logger *slog.Logger) *SocketListener {
	return &SocketListener{url: url, header: header, dialer: websocket.DefaultDialer, logger: logger}
}

// Listen returns nil when ctx ends and an error when the connection fails.
func (l *SocketListener) Listen(ctx context.Context, deliver func([]byte)) error {
	conn, _, err := l.dialer.DialContext(ctx, l.url, l.header)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	l.logger.DebugContext(ctx, "relay connected", "url", l.url)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read relay: %w", err)
		}
		deliver(msg)
	}
}
