package handler

import (
	"Festa/internal/pkg/progress"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	hub *progress.Hub
}

func NewWsHandler(hub *progress.Hub) *WsHandler {
	return &WsHandler{hub: hub}
}

// Connect 升级连接并挂入进度广播
func (s *WsHandler) Connect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	s.hub.Add(conn)
	defer func() {
		s.hub.Remove(conn)
		_ = conn.Close()
	}()

	log.Info("进度推送连接已建立", "total", s.hub.Count())

	// 读循环：仅用于感知客户端断开
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			return
		}
	}
}
