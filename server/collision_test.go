package main

import (
	"testing"
	"time"
)

func playerAt(pos Vec3) *Player {
	return NewPlayer("target", "Target", pos, time.Unix(0, 0))
}

func TestHitTestPlanar(t *testing.T) {
	p := playerAt(Vec3{X: 0, Y: EyeHeight, Z: 0})

	// Dead center
	if !hitTest(p, Vec3{X: 0, Y: EyeHeight, Z: 0}) {
		t.Error("projectile at the player's center should hit")
	}

	// Just inside the radius
	if !hitTest(p, Vec3{X: HitboxRadius - 0.01, Y: EyeHeight, Z: 0}) {
		t.Error("projectile just inside the radius should hit")
	}

	// Exactly on the radius is a miss (strict inequality)
	if hitTest(p, Vec3{X: HitboxRadius, Y: EyeHeight, Z: 0}) {
		t.Error("projectile exactly on the radius should miss")
	}

	// Clearly outside
	if hitTest(p, Vec3{X: 2 * HitboxRadius, Y: EyeHeight, Z: 0}) {
		t.Error("projectile outside the radius should miss")
	}
}

func TestHitTestVerticalBand(t *testing.T) {
	p := playerAt(Vec3{X: 0, Y: EyeHeight, Z: 0})
	band := PlayerHeight/2 + HitboxVerticalMargin

	if !hitTest(p, Vec3{X: 0, Y: EyeHeight + band - 0.01, Z: 0}) {
		t.Error("projectile just inside the top of the band should hit")
	}
	if hitTest(p, Vec3{X: 0, Y: EyeHeight + band + 0.01, Z: 0}) {
		t.Error("projectile above the band should miss")
	}
	if !hitTest(p, Vec3{X: 0, Y: EyeHeight - band + 0.01, Z: 0}) {
		t.Error("projectile just inside the bottom of the band should hit")
	}
	if hitTest(p, Vec3{X: 0, Y: EyeHeight - band - 0.01, Z: 0}) {
		t.Error("projectile below the band should miss")
	}
}

func TestHitTestIgnoresVerticalInPlanarDistance(t *testing.T) {
	// Inside the band but planar distance alone decides the hit
	p := playerAt(Vec3{X: 0, Y: EyeHeight, Z: 0})
	if !hitTest(p, Vec3{X: 0.5, Y: EyeHeight + 0.5, Z: 0.5}) {
		t.Error("planar distance within radius and height within band should hit")
	}
}

func TestPlanarClear(t *testing.T) {
	a := Vec3{X: 0, Y: EyeHeight, Z: 0}
	b := Vec3{X: 3, Y: 99, Z: 4} // planar distance 5, Y ignored

	if !planarClear(a, b, 5) {
		t.Error("points exactly minDist apart count as clear")
	}
	if planarClear(a, b, 6) {
		t.Error("points closer than minDist are not clear")
	}
}
