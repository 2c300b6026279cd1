package main

import "sync"

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub does connection accounting at the transport edge: per-IP and total
// caps, checked before a socket is upgraded. The game loop owns the
// connection-to-player mapping; the hub deliberately knows nothing about
// players.
type Hub struct {
	mu    sync.Mutex
	byIP  map[string]int
	total int
}

func NewHub() *Hub {
	return &Hub{byIP: make(map[string]int)}
}

// CanAccept reports whether a new connection from ip fits under the caps
func (h *Hub) CanAccept(ip string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total < maxTotalConns && h.byIP[ip] < maxConnsPerIP
}

func (h *Hub) TrackConnect(ip string) {
	h.adjust(ip, 1)
}

func (h *Hub) TrackDisconnect(ip string) {
	h.adjust(ip, -1)
}

func (h *Hub) adjust(ip string, delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.total += delta
	if n := h.byIP[ip] + delta; n > 0 {
		h.byIP[ip] = n
	} else {
		delete(h.byIP, ip)
	}
	UpdateConnectionCount(h.total)
}

// TotalConns reports how many sockets are currently tracked
func (h *Hub) TotalConns() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}
