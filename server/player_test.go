package main

import (
	"testing"
	"time"
)

func TestNewPlayer(t *testing.T) {
	now := time.Now()
	p := NewPlayer("p1", "Alice", Vec3{X: 1, Y: EyeHeight, Z: 2}, now)
	if p.ID != "p1" {
		t.Errorf("expected ID p1, got %s", p.ID)
	}
	if p.Name != "Alice" {
		t.Errorf("expected name Alice, got %s", p.Name)
	}
	if p.Health != MaxHealth {
		t.Errorf("expected health %d, got %d", MaxHealth, p.Health)
	}
	if p.Magazine != MagazineSize {
		t.Errorf("expected magazine %d, got %d", MagazineSize, p.Magazine)
	}
	if p.Ammo != MaxReserveAmmo {
		t.Errorf("expected ammo %d, got %d", MaxReserveAmmo, p.Ammo)
	}
	if p.Reloading {
		t.Error("new player should not be reloading")
	}
	if !p.Alive() {
		t.Error("new player should be alive")
	}
	if !p.LastActive.Equal(now) {
		t.Error("expected activity timestamp set at creation")
	}
}

func TestPlayerTakeDamage(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, time.Now())

	died := p.TakeDamage(30)
	if died {
		t.Error("should not have died from 30 damage")
	}
	if p.Health != 70 {
		t.Errorf("expected health 70, got %d", p.Health)
	}

	died = p.TakeDamage(80)
	if !died {
		t.Error("should have died from 80 more damage")
	}
	if p.Health != 0 {
		t.Errorf("health should clamp at 0, got %d", p.Health)
	}

	// Hits on a corpse do nothing
	died = p.TakeDamage(10)
	if died {
		t.Error("a dead player cannot die again")
	}
	if p.Health != 0 {
		t.Errorf("expected health to stay 0, got %d", p.Health)
	}
}

func TestPlayerReloadConservation(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, time.Now())
	p.Magazine = 5
	p.Ammo = 50

	before := p.Magazine + p.Ammo
	started := time.Now()
	p.StartReload(started)
	if !p.Reloading {
		t.Error("expected reloading flag set")
	}
	if !p.ReloadStart.Equal(started) {
		t.Error("expected the reload start time to be recorded")
	}
	p.FinishReload()

	if p.Magazine != 30 {
		t.Errorf("expected magazine 30, got %d", p.Magazine)
	}
	if p.Ammo != 25 {
		t.Errorf("expected ammo 25, got %d", p.Ammo)
	}
	if p.Magazine+p.Ammo != before {
		t.Errorf("reload must conserve rounds: %d before, %d after", before, p.Magazine+p.Ammo)
	}
	if p.Reloading {
		t.Error("expected reloading flag cleared")
	}
	if !p.ReloadStart.IsZero() {
		t.Error("expected the reload start time to be cleared")
	}
}

func TestPlayerReloadPartialReserve(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, time.Now())
	p.Magazine = 0
	p.Ammo = 12

	p.StartReload(time.Now())
	p.FinishReload()

	if p.Magazine != 12 {
		t.Errorf("expected magazine 12, got %d", p.Magazine)
	}
	if p.Ammo != 0 {
		t.Errorf("expected ammo 0, got %d", p.Ammo)
	}
}

func TestPlayerReloadGenerations(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, time.Now())
	p.Magazine = 5

	gen1 := p.StartReload(time.Now())
	p.CancelReload()
	if p.ReloadGen == gen1 {
		t.Error("cancel must advance the reload generation")
	}

	gen2 := p.StartReload(time.Now())
	if gen2 == gen1 {
		t.Error("a new reload must get a new generation")
	}
}

func TestPlayerCanShoot(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, time.Now())
	if !p.CanShoot() {
		t.Error("fresh player should be able to shoot")
	}

	p.Magazine = 0
	if p.CanShoot() {
		t.Error("empty magazine should block shooting")
	}

	p.Magazine = 10
	p.Reloading = true
	if p.CanShoot() {
		t.Error("reloading should block shooting")
	}

	p.Reloading = false
	p.Health = 0
	if p.CanShoot() {
		t.Error("dead player should not shoot")
	}
}

func TestPlayerCanReload(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, time.Now())
	if p.CanReload() {
		t.Error("full magazine should not reload")
	}

	p.Magazine = 5
	if !p.CanReload() {
		t.Error("partial magazine with reserve should reload")
	}

	p.Ammo = 0
	if p.CanReload() {
		t.Error("empty reserve should not reload")
	}

	p.Ammo = 50
	p.Reloading = true
	if p.CanReload() {
		t.Error("already reloading should not reload again")
	}

	p.Reloading = false
	p.Health = 0
	if p.CanReload() {
		t.Error("dead player should not reload")
	}
}

func TestPlayerRespawn(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, time.Now())
	p.Kills = 3
	p.Deaths = 2
	p.Health = 0
	p.Magazine = 4
	p.Ammo = 9
	p.Reloading = true

	spawn := Vec3{X: 7, Y: EyeHeight, Z: -3}
	p.Respawn(spawn)

	if !p.Alive() || p.Health != MaxHealth {
		t.Errorf("expected full health after respawn, got %d", p.Health)
	}
	if p.Magazine != MagazineSize || p.Ammo != MaxReserveAmmo {
		t.Errorf("expected full loadout, got magazine=%d ammo=%d", p.Magazine, p.Ammo)
	}
	if p.Reloading {
		t.Error("respawn must clear the reloading flag")
	}
	if p.Position != spawn {
		t.Errorf("expected position %+v, got %+v", spawn, p.Position)
	}
	if p.Kills != 3 || p.Deaths != 2 {
		t.Error("respawn must not reset kill/death counters")
	}
}

func TestPlayerIdleFor(t *testing.T) {
	now := time.Now()
	p := NewPlayer("p1", "Alice", Vec3{}, now)

	if p.IdleFor(now.Add(30*time.Second), time.Minute) {
		t.Error("player active 30s ago is not idle at a 60s threshold")
	}
	if !p.IdleFor(now.Add(61*time.Second), time.Minute) {
		t.Error("player silent for 61s should be idle at a 60s threshold")
	}

	p.Touch(now.Add(50 * time.Second))
	if p.IdleFor(now.Add(61*time.Second), time.Minute) {
		t.Error("touch must reset the idle clock")
	}
}

func TestPlayerToState(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{X: 1, Y: 2, Z: 3}, time.Now())
	p.Rotation = Rotation{Pitch: 0.5, Yaw: 1.5}
	p.Health = 80
	p.Magazine = 12
	p.Ammo = 40
	p.Kills = 4
	p.Deaths = 1
	p.Reloading = true

	s := p.ToState()
	if s.ID != "p1" || s.Name != "Alice" {
		t.Error("identity mismatch")
	}
	if s.Position != (Vec3{X: 1, Y: 2, Z: 3}) || s.Rotation != (Rotation{Pitch: 0.5, Yaw: 1.5}) {
		t.Error("pose mismatch")
	}
	if s.Health != 80 || s.Magazine != 12 || s.Ammo != 40 {
		t.Error("loadout mismatch")
	}
	if s.Kills != 4 || s.Deaths != 1 || !s.Reloading {
		t.Error("state field mismatch")
	}
}
