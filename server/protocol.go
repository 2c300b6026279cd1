package main

import (
	"encoding/json"
	"errors"
)

// Inbound message types
const (
	MsgPlayerUpdate  = "player_update"
	MsgShoot         = "shoot"
	MsgRequestReload = "request_reload"
)

// Outbound message types
const (
	MsgInit              = "init"
	MsgPlayerJoined      = "player_joined"
	MsgProjectileCreated = "projectile_created"
	MsgAmmoUpdate        = "ammo_update"
	MsgGameState         = "game_state"
	MsgPlayerRespawned   = "player_respawned"
	MsgPlayerLeft        = "player_left"
)

// Envelope wraps all outgoing JSON messages with a type field.
// The per-tick game_state is the exception: it travels as a binary
// msgpack frame with no envelope.
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope frames inbound messages; the payload stays raw until the
// type is known.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

var errBadPayload = errors.New("bad payload")

// Vec3 is a position, velocity, or direction in world units
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Scale returns v multiplied by s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) finite() bool {
	return finite(v.X, v.Y, v.Z)
}

// Rotation is a view orientation in radians
type Rotation struct {
	Pitch float64 `json:"pitch" msgpack:"pitch"`
	Yaw   float64 `json:"yaw" msgpack:"yaw"`
}

func (r Rotation) finite() bool {
	return finite(r.Pitch, r.Yaw)
}

// PlayerState is the full per-player record carried by init, player_joined,
// and every game_state snapshot
type PlayerState struct {
	ID        string   `json:"id" msgpack:"id"`
	Name      string   `json:"name" msgpack:"name"`
	Position  Vec3     `json:"position" msgpack:"position"`
	Rotation  Rotation `json:"rotation" msgpack:"rotation"`
	Health    int      `json:"health" msgpack:"health"`
	Magazine  int      `json:"magazine" msgpack:"magazine"`
	Ammo      int      `json:"ammo" msgpack:"ammo"`
	Kills     int      `json:"kills" msgpack:"kills"`
	Deaths    int      `json:"deaths" msgpack:"deaths"`
	Reloading bool     `json:"reloading" msgpack:"reloading"`
}

// ProjectileState is the full projectile record (init, projectile_created)
type ProjectileState struct {
	ID       string `json:"id" msgpack:"id"`
	OwnerID  string `json:"ownerId" msgpack:"ownerId"`
	Position Vec3   `json:"position" msgpack:"position"`
	Velocity Vec3   `json:"velocity" msgpack:"velocity"`
}

// InitMsg is sent once to a session right after it connects
type InitMsg struct {
	ID          string                 `json:"id"`
	Players     map[string]PlayerState `json:"players"`
	Projectiles []ProjectileState      `json:"projectiles"`
}

// PlayerUpdateMsg carries a client pose update
type PlayerUpdateMsg struct {
	Position *Vec3     `json:"position"`
	Rotation *Rotation `json:"rotation"`
}

// ShootMsg carries a client shot request. The direction is consumed as
// given; the server does not renormalize it.
type ShootMsg struct {
	Direction *Vec3 `json:"direction"`
	StartPos  *Vec3 `json:"startPos"`
}

// AmmoUpdateMsg confirms magazine/reserve counts to the shooter or reloader
type AmmoUpdateMsg struct {
	Magazine int `json:"magazine"`
	Ammo     int `json:"ammo"`
}

// HitEvent reports one projectile hit inside a game_state frame
type HitEvent struct {
	TargetID     string `json:"targetId" msgpack:"targetId"`
	NewHealth    int    `json:"newHealth" msgpack:"newHealth"`
	AttackerID   string `json:"attackerId" msgpack:"attackerId"`
	AttackerName string `json:"attackerName" msgpack:"attackerName"`
}

// DeathEvent reports one kill inside a game_state frame
type DeathEvent struct {
	VictimID     string `json:"victimId" msgpack:"victimId"`
	VictimName   string `json:"victimName" msgpack:"victimName"`
	AttackerID   string `json:"attackerId" msgpack:"attackerId"`
	AttackerName string `json:"attackerName" msgpack:"attackerName"`
}

// GameStateMsg is the authoritative per-tick broadcast: the complete player
// snapshot plus the tick's incremental events. Encoded with msgpack and sent
// as a binary frame.
type GameStateMsg struct {
	Players            map[string]PlayerState `json:"players" msgpack:"players"`
	Hits               []HitEvent             `json:"hits" msgpack:"hits"`
	Deaths             []DeathEvent           `json:"deaths" msgpack:"deaths"`
	RemovedProjectiles []string               `json:"removedProjectiles" msgpack:"removedProjectiles"`
}

// RespawnMsg announces a player re-entering play
type RespawnMsg struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Health   int     `json:"health"`
	Magazine int     `json:"magazine"`
	Ammo     int     `json:"ammo"`
}

// LeftMsg announces a player leaving (disconnect, error, or eviction)
type LeftMsg struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// parsePlayerUpdate decodes and sanity-checks a pose update. Both objects
// must be present and every numeric field finite; anything else drops the
// update without touching state.
func parsePlayerUpdate(raw json.RawMessage) (PlayerUpdateMsg, error) {
	var msg PlayerUpdateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, err
	}
	if msg.Position == nil || msg.Rotation == nil {
		return msg, errBadPayload
	}
	if !msg.Position.finite() || !msg.Rotation.finite() {
		return msg, errBadPayload
	}
	return msg, nil
}

// parseShoot decodes and sanity-checks a shot request
func parseShoot(raw json.RawMessage) (ShootMsg, error) {
	var msg ShootMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, err
	}
	if msg.Direction == nil || msg.StartPos == nil {
		return msg, errBadPayload
	}
	if !msg.Direction.finite() || !msg.StartPos.finite() {
		return msg, errBadPayload
	}
	return msg, nil
}
