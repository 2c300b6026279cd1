package main

import "time"

const (
	MaxPlayers     = 32  // join requests past this are refused
	MaxProjectiles = 512 // shots past this are swallowed
)

// stepResult collects everything one simulation step produced
type stepResult struct {
	Hits    []HitEvent
	Deaths  []DeathEvent
	Removed []string  // projectile IDs consumed or expired this step
	Dead    []*Player // players killed this step, for respawn scheduling
}

// World is the simulation aggregate. Every player and projectile mutation
// goes through it, always on the game loop goroutine, so it has no lock
// and must never need one.
type World struct {
	players     map[string]*Player
	order       []string // join order; drives deterministic hit scanning
	projectiles []*Projectile
}

func NewWorld() *World {
	return &World{
		players: make(map[string]*Player),
	}
}

func (w *World) PlayerCount() int {
	return len(w.players)
}

func (w *World) ProjectileCount() int {
	return len(w.projectiles)
}

func (w *World) Player(id string) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// AddPlayer registers p and appends it to the scan order
func (w *World) AddPlayer(p *Player) {
	w.players[p.ID] = p
	w.order = append(w.order, p.ID)
}

// RemovePlayer drops id from the player set and the scan order
func (w *World) RemovePlayer(id string) {
	if _, ok := w.players[id]; !ok {
		return
	}
	delete(w.players, id)
	for i, pid := range w.order {
		if pid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// EachPlayer visits every player in join order
func (w *World) EachPlayer(fn func(*Player)) {
	for _, id := range w.order {
		fn(w.players[id])
	}
}

// AddProjectile registers pr, refusing past the cap
func (w *World) AddProjectile(pr *Projectile) bool {
	if len(w.projectiles) >= MaxProjectiles {
		return false
	}
	w.projectiles = append(w.projectiles, pr)
	return true
}

// Snapshot returns the complete player state map sent in init and in every
// game_state frame.
func (w *World) Snapshot() map[string]PlayerState {
	out := make(map[string]PlayerState, len(w.players))
	for id, p := range w.players {
		out[id] = p.ToState()
	}
	return out
}

// ProjectileSnapshot returns every live projectile's state
func (w *World) ProjectileSnapshot() []ProjectileState {
	out := make([]ProjectileState, 0, len(w.projectiles))
	for _, pr := range w.projectiles {
		out = append(out, pr.ToState())
	}
	return out
}

// SpawnPoint picks a random ground position at eye level, retrying a few
// times for one clear of every living player. A crowded map accepts the
// overlap rather than spin forever.
func (w *World) SpawnPoint() Vec3 {
	var pos Vec3
	for attempt := 0; attempt < 10; attempt++ {
		pos = Vec3{
			X: -SpawnExtent + randFloat()*2*SpawnExtent,
			Y: EyeHeight,
			Z: -SpawnExtent + randFloat()*2*SpawnExtent,
		}
		blocked := false
		for _, p := range w.players {
			if p.Alive() && !planarClear(pos, p.Position, 2*BodyRadius) {
				blocked = true
				break
			}
		}
		if !blocked {
			break
		}
	}
	return pos
}

// Step advances the simulation one tick: integrate every projectile, retire
// the expired ones, then resolve hits in join order. A projectile damages
// at most one player and is always consumed by the hit.
func (w *World) Step(now time.Time, dt float64) stepResult {
	var res stepResult
	live := w.projectiles[:0]
	for _, pr := range w.projectiles {
		pr.Update(dt)
		if pr.Expired(now) {
			pr.Alive = false
		} else {
			w.resolveHit(pr, &res)
		}
		if pr.Alive {
			live = append(live, pr)
		} else {
			res.Removed = append(res.Removed, pr.ID)
		}
	}
	w.projectiles = live
	return res
}
