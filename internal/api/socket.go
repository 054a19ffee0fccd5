package api

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"github.com/lueurxax/courtside/internal/broadcaster"
)

// wsConn adapts a websocket connection to the broadcaster's Conn.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	return w.conn.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "closing")
}

// handleSocket upgrades the connection, delivers the 24h snapshot and keeps
// the subscriber registered until the client goes away. Subscribers are
// write-only; the read loop only exists to notice the close.
func (s *server) handleSocket(c *gin.Context) {
	ctx := c.Request.Context()

	snapshot, err := s.store.QueryRecent(ctx, time.Now().Add(-snapshotWindow))
	if err != nil {
		s.log.WithError(err).Error("snapshot query")
		c.Status(http.StatusInternalServerError)

		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept")
		return
	}

	sub := s.hub.Subscribe(ctx, &wsConn{conn: conn}, snapshot)

	go s.readUntilClosed(ctx, conn, sub)

	<-sub.Done()
}

func (s *server) readUntilClosed(ctx context.Context, conn *websocket.Conn, sub *broadcaster.Subscriber) {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				s.log.WithError(err).Debug("subscriber read closed")
			}

			s.hub.Unsubscribe(sub)

			return
		}
	}
}
