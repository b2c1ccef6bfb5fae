package progress

import (
	log "log/slog"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Event 推送给前端的统一事件信封
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Hub 进程内的 websocket 连接集合，进度与通知都经它广播
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// Add 注册一个连接
func (s *Hub) Add(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

// Remove 注销连接，由调用方负责 Close
func (s *Hub) Remove(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// Publish 向所有连接广播事件，写失败的连接直接剔除
func (s *Hub) Publish(event string, payload any) {
	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		log.Error("进度事件序列化失败", "event", event, "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(s.conns, conn)
			_ = conn.Close()
		}
	}
}

// Count 当前连接数
func (s *Hub) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
