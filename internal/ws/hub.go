package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/events"
)

// 送信先の接続（*websocket.Conn が満たす）
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Logger interface {
	Warnf(format string, args ...interface{})
}

// 管理画面に流すメッセージ
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	MessageOrderPlaced        = "order_placed"
	MessageOrderStatusChanged = "order_status_changed"
)

const (
	defaultClientBuffer = 16
	broadcastBuffer     = 64
	defaultWriteTimeout = 10 * time.Second
)

var (
	ErrHubBusy   = errors.New("ws hub: broadcast queue full")
	ErrHubClosed = errors.New("ws hub: stopped")
)

// 接続ごとの送信キュー。書き込みは接続ごとのgoroutineが行う
type client struct {
	conn Conn
	send chan Message
}

// Hub は管理画面のWebSocket接続をまとめて、注文イベントを全員に配る。
// 遅い接続はキューがあふれた時点で切る。
type Hub struct {
	clients    map[Conn]*client
	broadcast  chan Message
	register   chan Conn
	unregister chan Conn
	stopped    chan struct{}
	mu         sync.Mutex
	logger     Logger

	clientBuffer int
	writeTimeout time.Duration
}

func NewHub(logger Logger) *Hub {
	return &Hub{
		clients:      make(map[Conn]*client),
		broadcast:    make(chan Message, broadcastBuffer),
		register:     make(chan Conn),
		unregister:   make(chan Conn),
		stopped:      make(chan struct{}),
		logger:       logger,
		clientBuffer: defaultClientBuffer,
		writeTimeout: defaultWriteTimeout,
	}
}

// register/unregister/broadcast を処理し続ける。接続への書き込みはしない
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				h.removeLocked(conn)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			c := &client{conn: conn, send: make(chan Message, h.clientBuffer)}
			h.mu.Lock()
			h.clients[conn] = c
			h.mu.Unlock()
			go h.writeLoop(c)

		case conn := <-h.unregister:
			h.remove(conn)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn, c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warnf("ws client too slow, dropping")
					h.removeLocked(conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// 1接続分の書き込み。失敗したらその接続だけ外す
func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.logger.Warnf("ws write error: %v", err)
			h.remove(c.conn)
			return
		}
	}
}

func (h *Hub) remove(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(conn)
}

// Closeで書き込み中の接続も抜ける
func (h *Hub) removeLocked(conn Conn) {
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(c.send)
	_ = conn.Close()
}

func (h *Hub) Register(ctx context.Context, conn Conn) {
	select {
	case h.register <- conn:
	case <-ctx.Done():
	}
}

func (h *Hub) Unregister(ctx context.Context, conn Conn) {
	select {
	case h.unregister <- conn:
	case <-ctx.Done():
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// send は待たない。キューがいっぱいなら捨ててエラーを返す
func (h *Hub) send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-h.stopped:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- msg:
		return nil
	default:
		return ErrHubBusy
	}
}

func (h *Hub) PublishOrderPlaced(ctx context.Context, ev events.OrderPlaced) error {
	return h.send(ctx, Message{Type: MessageOrderPlaced, Payload: ev})
}

func (h *Hub) PublishOrderStatusChanged(ctx context.Context, ev events.OrderStatusChanged) error {
	return h.send(ctx, Message{Type: MessageOrderStatusChanged, Payload: ev})
}

var _ events.Publisher = (*Hub)(nil)
