package main

// resolveHit scans players in join order and applies pr against the first
// eligible target: never the owner, never a dead player, strict hitbox
// test. The first hit consumes the projectile.
func (w *World) resolveHit(pr *Projectile, res *stepResult) {
	for _, id := range w.order {
		target := w.players[id]
		if id == pr.OwnerID || !target.Alive() {
			continue
		}
		if !hitTest(target, pr.Position) {
			continue
		}
		pr.Alive = false
		attackerName := w.attackerName(pr.OwnerID)
		died := target.TakeDamage(HitDamage)
		res.Hits = append(res.Hits, HitEvent{
			TargetID:     target.ID,
			NewHealth:    target.Health,
			AttackerID:   pr.OwnerID,
			AttackerName: attackerName,
		})
		if died {
			w.recordDeath(target, pr.OwnerID, attackerName, res)
		}
		return
	}
}

// recordDeath runs the death bookkeeping: counters, reload cancellation,
// respawn generation bump, and the death event.
func (w *World) recordDeath(victim *Player, attackerID, attackerName string, res *stepResult) {
	victim.Deaths++
	victim.CancelReload()
	victim.RespawnGen++
	if att, ok := w.players[attackerID]; ok && att.ID != victim.ID {
		att.Kills++
	}
	res.Deaths = append(res.Deaths, DeathEvent{
		VictimID:     victim.ID,
		VictimName:   victim.Name,
		AttackerID:   attackerID,
		AttackerName: attackerName,
	})
	res.Dead = append(res.Dead, victim)
}

// attackerName resolves a projectile owner by ID. The reference is weak:
// an owner who already left reports as "unknown" and earns no kill.
func (w *World) attackerName(ownerID string) string {
	if att, ok := w.players[ownerID]; ok {
		return att.Name
	}
	return "unknown"
}
