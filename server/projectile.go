package main

import "time"

const (
	ProjectileSpeed    = 60.0 // world units/s
	ProjectileLifetime = 3 * time.Second
	FloorY             = -10.0 // below this the bullet has left the playable volume
)

// Projectile is a server-side bullet in flight. Velocity is the client's
// direction scaled by ProjectileSpeed; the direction is trusted as given
// and never renormalized. OwnerID is a weak reference, since the owner may
// be gone by the time the bullet lands.
type Projectile struct {
	ID        string
	OwnerID   string
	Position  Vec3
	Velocity  Vec3
	SpawnedAt time.Time
	Alive     bool
}

// NewProjectile creates a projectile from a validated shot request
func NewProjectile(ownerID string, start, dir Vec3, now time.Time) *Projectile {
	return &Projectile{
		ID:        GenerateID(3),
		OwnerID:   ownerID,
		Position:  start,
		Velocity:  dir.Scale(ProjectileSpeed),
		SpawnedAt: now,
		Alive:     true,
	}
}

// Update integrates position one tick. No gravity; bullets fly straight.
func (p *Projectile) Update(dt float64) {
	p.Position.X += p.Velocity.X * dt
	p.Position.Y += p.Velocity.Y * dt
	p.Position.Z += p.Velocity.Z * dt
}

// Expired checks whether the projectile outlived its lifetime or dropped
// below the floor plane. Lifetime is measured against the wall clock, not
// integrated tick time, so a stalled process still retires old bullets.
func (p *Projectile) Expired(now time.Time) bool {
	return now.Sub(p.SpawnedAt) > ProjectileLifetime || p.Position.Y < FloorY
}

// ToState builds the wire record sent in projectile_created and init
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		ID:       p.ID,
		OwnerID:  p.OwnerID,
		Position: p.Position,
		Velocity: p.Velocity,
	}
}
