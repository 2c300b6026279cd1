package main

const (
	HitboxRadius         = 0.9  // planar hit radius around the player column
	HitboxVerticalMargin = 0.25 // forgiveness above and below the column
)

// hitTest checks whether a projectile at pos strikes player p. Player
// positions sit at eye level, so the hit column is centered there. The
// cheap vertical band check runs first, then squared planar distance with
// a strict inequality: a touch at exactly the radius is a miss.
func hitTest(p *Player, pos Vec3) bool {
	halfBand := PlayerHeight/2 + HitboxVerticalMargin
	dy := pos.Y - p.Position.Y
	if dy > halfBand || dy < -halfBand {
		return false
	}
	dx := pos.X - p.Position.X
	dz := pos.Z - p.Position.Z
	return dx*dx+dz*dz < HitboxRadius*HitboxRadius
}

// planarClear checks whether two points are at least minDist apart on the
// ground plane. Used when picking spawn positions.
func planarClear(a, b Vec3, minDist float64) bool {
	dx := b.X - a.X
	dz := b.Z - a.Z
	return dx*dx+dz*dz >= minDist*minDist
}
