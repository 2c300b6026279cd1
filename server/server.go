package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Server ties the HTTP surface to the game: the WebSocket entry point plus
// the small operational API around it.
type Server struct {
	cfg   Config
	hub   *Hub
	game  *Game
	auth  *Auth
	db    *DB
	start time.Time
}

func NewServer(cfg Config, hub *Hub, game *Game, auth *Auth, db *DB) *Server {
	return &Server{
		cfg:   cfg,
		hub:   hub,
		game:  game,
		auth:  auth,
		db:    db,
		start: time.Now(),
	}
}

// Routes builds the public router
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/ws", s.handleWS)
	r.Post("/join", s.handleJoin)
	r.Get("/qr", s.handleQR)
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/status", s.handleStatus)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// handleWS runs the join handshake: connection caps, ticket check when
// auth is on, upgrade, then hand the session to the game loop. The player
// ID is allocated here, before either pump starts.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := extractIP(r)
	if !s.hub.CanAccept(ip) {
		RecordConnectionRejected("conn_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	var name string
	if s.auth.Enabled() {
		ticketName, err := s.auth.ValidateTicket(r.URL.Query().Get("token"))
		if err != nil {
			RecordConnectionRejected("auth")
			http.Error(w, "invalid ticket", http.StatusUnauthorized)
			return
		}
		name = ticketName
	} else {
		name = CleanName(r.URL.Query().Get("name"))
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("addr", ip).Msg("upgrade failed")
		return
	}

	s.hub.TrackConnect(ip)

	playerID := GenerateID(4)
	client := NewClient(s.hub, s.game, conn, ip, playerID)
	s.game.Post(joinCmd{id: playerID, name: name, conn: client})

	go client.WritePump()
	go client.ReadPump()
}

type joinRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type joinResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// handleJoin issues a join ticket. With auth disabled the ticket is still
// issued but /ws will not ask for it.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	token, err := s.auth.IssueTicket(req.Name, req.Password, extractIP(r))
	if err != nil {
		RecordConnectionRejected("auth")
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{Token: token, Name: CleanName(req.Name)})
}

// handleQR renders the join URL as a PNG for handing the server address
// to phones on a LAN.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	target := s.cfg.PublicURL
	if target == "" {
		target = "http://" + r.Host
	}

	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := s.db.Leaderboard(r.URL.Query().Get("by"), limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard query failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"players":        s.game.PlayerCount(),
		"max_players":    MaxPlayers,
		"projectiles":    s.game.ProjectileCount(),
		"tick":           s.game.Ticks(),
		"connections":    s.hub.TotalConns(),
		"uptime_seconds": int(time.Since(s.start).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("response encode failed")
	}
}
