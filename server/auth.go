package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost      = 12
	minNameLen      = 2
	joinRateWindow  = 60 * time.Second
	maxJoinAttempts = 10
)

// Auth issues and validates join tickets. A ticket is a short-lived JWT
// handed out by POST /join and presented on the WebSocket handshake. When
// auth is disabled the /ws endpoint accepts anyone and tickets are just
// ignored.
type Auth struct {
	enabled  bool
	secret   []byte
	passHash []byte // bcrypt hash of the join password, empty means open joins
	ttl      time.Duration

	// Rate limiting for join attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth builds the ticket issuer from config. With no configured secret
// an ephemeral one is generated, so tickets do not survive a restart.
func NewAuth(cfg Config) (*Auth, error) {
	secret := []byte(cfg.AuthSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate ticket secret: %w", err)
		}
		if cfg.AuthEnabled {
			log.Warn().Msg("no auth secret configured, tickets will not survive a restart")
		}
	}

	var passHash []byte
	if cfg.JoinPassword != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.JoinPassword), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash join password: %w", err)
		}
		passHash = h
	}

	return &Auth{
		enabled:  cfg.AuthEnabled,
		secret:   secret,
		passHash: passHash,
		ttl:      cfg.TicketTTL,
		rateMap:  make(map[string]*rateEntry),
	}, nil
}

func (a *Auth) Enabled() bool {
	return a.enabled
}

// IssueTicket validates the join attempt and returns a signed ticket
// carrying the cleaned display name.
func (a *Auth) IssueTicket(name, password, ip string) (string, error) {
	if !a.checkRate(ip) {
		return "", fmt.Errorf("too many join attempts, try again later")
	}
	if len(a.passHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(a.passHash, []byte(password)); err != nil {
			return "", fmt.Errorf("invalid password")
		}
	}

	claims := jwt.MapClaims{
		"usr": CleanName(name),
		"jti": uuid.NewString(),
		"exp": time.Now().Add(a.ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateTicket checks a ticket and returns the display name it carries
func (a *Auth) ValidateTicket(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid ticket")
	}
	name, ok := claims["usr"].(string)
	if !ok || name == "" {
		return "", fmt.Errorf("invalid ticket claims")
	}
	return name, nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(joinRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxJoinAttempts
}

// CleanName trims and bounds a display name, substituting a guest name
// when nothing usable remains.
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) < minNameLen {
		return GenerateGuestName()
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

// GenerateGuestName invents a display name for sessions that offer none
func GenerateGuestName() string {
	b := make([]byte, 3)
	rand.Read(b)
	return "Guest_" + hex.EncodeToString(b)
}
