package main

import (
	"crypto/rand"
	"time"
)

const (
	MaxHealth      = 100 // hit points at spawn and after respawn
	HitDamage      = 10  // hit points removed per projectile hit
	MagazineSize   = 30  // rounds in a full magazine
	MaxReserveAmmo = 100 // rounds carried outside the magazine

	PlayerHeight = 1.8  // world units, feet to crown
	EyeHeight    = 1.6  // world units, feet to camera; spawn and hitbox center Y
	BodyRadius   = 0.5  // planar clearance radius used when picking spawns
	SpawnExtent  = 25.0 // spawns land in [-SpawnExtent, SpawnExtent] on x and z
)

// Player is the authoritative per-player record. It is owned by the game
// loop goroutine and must not be touched from anywhere else.
type Player struct {
	ID   string
	Name string

	Position Vec3
	Rotation Rotation

	Health      int
	Magazine    int
	Ammo        int
	Kills       int
	Deaths      int
	Reloading   bool
	ReloadStart time.Time // zero unless a reload is in flight

	// Generation counters invalidate in-flight timers. A reload or respawn
	// completion applies only if the generation it captured still matches.
	ReloadGen  uint64
	RespawnGen uint64

	LastActive time.Time
	JoinedAt   time.Time
}

// NewPlayer creates a player at pos with a full loadout
func NewPlayer(id, name string, pos Vec3, now time.Time) *Player {
	return &Player{
		ID:         id,
		Name:       name,
		Position:   pos,
		Health:     MaxHealth,
		Magazine:   MagazineSize,
		Ammo:       MaxReserveAmmo,
		LastActive: now,
		JoinedAt:   now,
	}
}

func (p *Player) Alive() bool {
	return p.Health > 0
}

// CanShoot returns true if a shot request should produce a projectile
func (p *Player) CanShoot() bool {
	return p.Alive() && !p.Reloading && p.Magazine > 0
}

// CanReload returns true if a reload request should start a reload
func (p *Player) CanReload() bool {
	return p.Alive() && !p.Reloading && p.Magazine < MagazineSize && p.Ammo > 0
}

// StartReload marks the player reloading and returns the generation the
// completion timer must present to apply.
func (p *Player) StartReload(now time.Time) uint64 {
	p.Reloading = true
	p.ReloadStart = now
	p.ReloadGen++
	return p.ReloadGen
}

// CancelReload aborts an in-flight reload without transferring rounds
func (p *Player) CancelReload() {
	p.Reloading = false
	p.ReloadStart = time.Time{}
	p.ReloadGen++
}

// FinishReload moves rounds from reserve into the magazine. Rounds are
// conserved: the transfer never mints or destroys ammunition.
func (p *Player) FinishReload() {
	p.Reloading = false
	p.ReloadStart = time.Time{}
	need := MagazineSize - p.Magazine
	if need > p.Ammo {
		need = p.Ammo
	}
	p.Magazine += need
	p.Ammo -= need
}

// TakeDamage reduces health, clamping at zero, and returns true if this
// hit killed the player. Hits on an already dead player do nothing.
func (p *Player) TakeDamage(dmg int) bool {
	if !p.Alive() {
		return false
	}
	p.Health -= dmg
	if p.Health < 0 {
		p.Health = 0
	}
	return p.Health == 0
}

// Respawn puts the player back into play at pos with a full loadout
func (p *Player) Respawn(pos Vec3) {
	p.Position = pos
	p.Health = MaxHealth
	p.Magazine = MagazineSize
	p.Ammo = MaxReserveAmmo
	p.Reloading = false
	p.ReloadStart = time.Time{}
}

// Touch records client activity for the inactivity sweep
func (p *Player) Touch(now time.Time) {
	p.LastActive = now
}

// IdleFor returns true if the player has been silent for at least timeout
func (p *Player) IdleFor(now time.Time, timeout time.Duration) bool {
	return now.Sub(p.LastActive) >= timeout
}

// ToState builds the wire record for snapshots and join announcements
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:        p.ID,
		Name:      p.Name,
		Position:  p.Position,
		Rotation:  p.Rotation,
		Health:    p.Health,
		Magazine:  p.Magazine,
		Ammo:      p.Ammo,
		Kills:     p.Kills,
		Deaths:    p.Deaths,
		Reloading: p.Reloading,
	}
}

// randFloat returns a float64 in [0, 1). Spawn scatter only needs cheap
// xorshift randomness, not crypto quality.
var randSrc uint64

func randFloat() float64 {
	randSrc ^= randSrc << 13
	randSrc ^= randSrc >> 7
	randSrc ^= randSrc << 17
	if randSrc == 0 {
		randSrc = 1
	}
	return float64(randSrc%10000) / 10000.0
}

func init() {
	// seed once so restarts do not replay the same spawn sequence
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	for i, v := range b {
		randSrc |= uint64(v) << (uint(i) * 8)
	}
	if randSrc == 0 {
		randSrc = 1
	}
}
