package realtime

import (
	"context"

	"github.com/gorilla/websocket"
)

type gorillaDialer struct {
	dialer *websocket.Dialer
}

func defaultDialer() Dialer {
	return &gorillaDialer{dialer: websocket.DefaultDialer}
}

func (d *gorillaDialer) Dial(ctx context.Context, rawURL string) (Conn, error) {
	c, resp, err := d.dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return &gorillaConn{conn: c}, nil
}

type gorillaConn struct {
	conn *websocket.Conn
}

func (c *gorillaConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *gorillaConn) WriteJSON(v any) error {
	return c.conn.WriteJSON(v)
}

func (c *gorillaConn) Close() error {
	return c.conn.Close()
}
