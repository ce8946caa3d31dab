package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cheffnex/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// OrderHub pushes order events to the staff screens of one restaurant.
type OrderHub struct {
	rooms      map[string]map[*websocket.Conn]bool
	broadcast  chan events.Event
	register   chan subscription
	unregister chan subscription
	mu         sync.Mutex
	done       chan struct{}
	upgrader   websocket.Upgrader
}

type subscription struct {
	conn         *websocket.Conn
	restaurantID string
}

func NewOrderHub(allowOrigin func(r *http.Request) bool) *OrderHub {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &OrderHub{
		rooms:      make(map[string]map[*websocket.Conn]bool),
		broadcast:  make(chan events.Event, 64),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		done:       make(chan struct{}),
		upgrader:   websocket.Upgrader{CheckOrigin: allowOrigin},
	}
}

// Run serves subscriptions and broadcasts until ctx is done, then closes
// every open connection.
func (h *OrderHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, room := range h.rooms {
				for conn := range room {
					conn.Close()
				}
			}
			h.rooms = map[string]map[*websocket.Conn]bool{}
			h.mu.Unlock()
			return

		case sub := <-h.register:
			h.mu.Lock()
			if h.rooms[sub.restaurantID] == nil {
				h.rooms[sub.restaurantID] = make(map[*websocket.Conn]bool)
			}
			h.rooms[sub.restaurantID][sub.conn] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.rooms[sub.restaurantID][sub.conn]; ok {
				h.drop(sub.restaurantID, sub.conn)
			}
			h.mu.Unlock()

		case e := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.rooms[e.RestaurantID] {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(e); err != nil {
					zap.L().Debug("ws write failed", zap.String("restaurantId", e.RestaurantID), zap.Error(err))
					h.drop(e.RestaurantID, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop closes conn and forgets it, removing the room once nobody is left.
// Callers hold h.mu.
func (h *OrderHub) drop(restaurantID string, conn *websocket.Conn) {
	conn.Close()
	room := h.rooms[restaurantID]
	delete(room, conn)
	if len(room) == 0 {
		delete(h.rooms, restaurantID)
	}
}

// Publish queues e for the restaurant's connected screens. It never blocks
// past ctx and drops the event once the hub stopped.
func (h *OrderHub) Publish(ctx context.Context, e events.Event) error {
	select {
	case h.broadcast <- e:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribers counts open connections for a restaurant.
func (h *OrderHub) Subscribers(restaurantID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[restaurantID])
}

// Rooms counts restaurants with at least one open connection.
func (h *OrderHub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// ServeWS upgrades the request and subscribes it to restaurantID.
func (h *OrderHub) ServeWS(c *gin.Context, restaurantID string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("ws upgrade failed", zap.Error(err))
		return
	}

	sub := subscription{conn: conn, restaurantID: restaurantID}
	select {
	case h.register <- sub:
	case <-h.done:
		conn.Close()
		return
	}
	go h.readPump(sub)
	go h.pingPump(sub)
}

// readPump only watches for the client going away; staff screens send nothing.
func (h *OrderHub) readPump(sub subscription) {
	defer func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}()

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *OrderHub) pingPump(sub subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.mu.Lock()
			_, open := h.rooms[sub.restaurantID][sub.conn]
			var err error
			if open {
				err = sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			}
			h.mu.Unlock()
			if !open || err != nil {
				return
			}
		case <-h.done:
			return
		}
	}
}
