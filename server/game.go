package main

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate     = 30 // simulation ticks per second
	TickDuration = time.Second / TickRate
	MaxDeltaTime = 0.1 // seconds; caps the effect of scheduler stalls

	inboxSize = 256
)

// PlayerConn is the loop's view of one connected session. Send methods
// must never block the loop; Close must be safe to call more than once.
type PlayerConn interface {
	SendJSON(msg interface{})
	SendRaw(data []byte)
	SendBinary(data []byte)
	Close()
}

// Inbound commands. Everything that can mutate the world arrives on the
// inbox as one of these and is handled by the loop goroutine, including
// the timer completions, which carry the generation they captured.
type (
	joinCmd struct {
		id   string
		name string
		conn PlayerConn
	}
	leaveCmd struct {
		id string
	}
	playerUpdateCmd struct {
		id  string
		pos Vec3
		rot Rotation
	}
	shootCmd struct {
		id    string
		dir   Vec3
		start Vec3
	}
	reloadCmd struct {
		id string
	}
	reloadDoneCmd struct {
		id  string
		gen uint64
	}
	respawnCmd struct {
		id  string
		gen uint64
	}
)

// GameSettings are the operator-tunable timers. Tests shrink them to keep
// timer scenarios fast.
type GameSettings struct {
	ReloadDuration    time.Duration
	RespawnDelay      time.Duration
	InactivityTimeout time.Duration
}

// Game runs one match: a world aggregate plus the connection map, mutated
// only by the Run goroutine. Everyone else talks to it through Post.
type Game struct {
	settings GameSettings

	world   *World
	clients map[string]PlayerConn

	inbox chan interface{}
	quit  chan struct{}
	once  sync.Once

	lastTick time.Time
	stats    *Analytics
	log      zerolog.Logger

	// Mirrors of loop-owned counts for readers off the loop (status endpoint)
	playerCount     atomic.Int64
	projectileCount atomic.Int64
	ticks           atomic.Uint64
}

// NewGame creates a game. stats may be nil to disable the journal.
func NewGame(settings GameSettings, stats *Analytics, logger zerolog.Logger) *Game {
	return &Game{
		settings: settings,
		world:    NewWorld(),
		clients:  make(map[string]PlayerConn),
		inbox:    make(chan interface{}, inboxSize),
		quit:     make(chan struct{}),
		stats:    stats,
		log:      logger.With().Str("component", "game").Logger(),
	}
}

// Run drives the loop until Stop. All world mutation happens here.
func (g *Game) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	g.lastTick = time.Now()
	for {
		select {
		case cmd := <-g.inbox:
			g.handleCommand(cmd, time.Now())
		case <-ticker.C:
			g.step(time.Now())
		case <-g.quit:
			return
		}
	}
}

// Stop shuts the loop down. Safe to call more than once.
func (g *Game) Stop() {
	g.once.Do(func() { close(g.quit) })
}

// Post hands a command to the loop. It blocks while the inbox is full,
// which backpressures chatty producers, and bails out once the game has
// stopped so timer goroutines never hang.
func (g *Game) Post(cmd interface{}) {
	select {
	case g.inbox <- cmd:
	case <-g.quit:
	}
}

func (g *Game) handleCommand(cmd interface{}, now time.Time) {
	switch c := cmd.(type) {
	case joinCmd:
		g.handleJoin(c, now)
	case leaveCmd:
		g.removePlayer(c.id, "disconnect")
	case playerUpdateCmd:
		g.handlePlayerUpdate(c, now)
	case shootCmd:
		g.handleShoot(c, now)
	case reloadCmd:
		g.handleReload(c, now)
	case reloadDoneCmd:
		g.handleReloadDone(c)
	case respawnCmd:
		g.handleRespawn(c, now)
	}
}

func (g *Game) handleJoin(c joinCmd, now time.Time) {
	if g.world.PlayerCount() >= MaxPlayers {
		g.log.Warn().Str("player", c.id).Msg("join refused, server full")
		c.conn.Close()
		return
	}

	player := NewPlayer(c.id, c.name, g.world.SpawnPoint(), now)
	g.world.AddPlayer(player)
	g.clients[c.id] = c.conn

	c.conn.SendJSON(Envelope{T: MsgInit, Data: InitMsg{
		ID:          player.ID,
		Players:     g.world.Snapshot(),
		Projectiles: g.world.ProjectileSnapshot(),
	}})
	g.broadcast(Envelope{T: MsgPlayerJoined, Data: player.ToState()}, c.id)

	g.stats.Track(StatEvent{Kind: EventJoin, PlayerID: player.ID, PlayerName: player.Name, At: now})
	g.playerCount.Store(int64(g.world.PlayerCount()))
	UpdatePlayerCount(g.world.PlayerCount())
	g.log.Info().Str("player", player.ID).Str("name", player.Name).Msg("player joined")
}

// removePlayer is the single cleanup path shared by disconnects, transport
// errors, and inactivity eviction. Safe to call twice: the second call
// finds nothing and does nothing, so player_left goes out exactly once.
func (g *Game) removePlayer(id, reason string) {
	player, ok := g.world.Player(id)
	if !ok {
		return
	}
	g.world.RemovePlayer(id)
	if conn, ok := g.clients[id]; ok {
		delete(g.clients, id)
		conn.Close()
	}

	g.broadcast(Envelope{T: MsgPlayerLeft, Data: LeftMsg{ID: player.ID, Name: player.Name}}, "")

	g.stats.Track(StatEvent{Kind: EventLeave, PlayerID: player.ID, PlayerName: player.Name, At: time.Now()})
	g.playerCount.Store(int64(g.world.PlayerCount()))
	UpdatePlayerCount(g.world.PlayerCount())
	g.log.Info().Str("player", id).Str("reason", reason).Msg("player left")
}

func (g *Game) handlePlayerUpdate(c playerUpdateCmd, now time.Time) {
	player, ok := g.world.Player(c.id)
	if !ok {
		return
	}
	player.Touch(now)
	if !player.Alive() {
		return
	}
	player.Position = c.pos
	player.Rotation = c.rot
}

func (g *Game) handleShoot(c shootCmd, now time.Time) {
	player, ok := g.world.Player(c.id)
	if !ok {
		return
	}
	player.Touch(now)
	if !player.CanShoot() {
		return
	}

	proj := NewProjectile(player.ID, c.start, c.dir, now)
	if !g.world.AddProjectile(proj) {
		g.log.Warn().Str("player", c.id).Msg("projectile cap reached, shot dropped")
		return
	}
	player.Magazine--

	g.broadcast(Envelope{T: MsgProjectileCreated, Data: proj.ToState()}, "")
	g.sendTo(c.id, Envelope{T: MsgAmmoUpdate, Data: AmmoUpdateMsg{
		Magazine: player.Magazine,
		Ammo:     player.Ammo,
	}})
	CountShot()
}

func (g *Game) handleReload(c reloadCmd, now time.Time) {
	player, ok := g.world.Player(c.id)
	if !ok {
		return
	}
	player.Touch(now)
	if !player.CanReload() {
		return
	}

	gen := player.StartReload(now)
	g.afterFunc(g.settings.ReloadDuration, reloadDoneCmd{id: c.id, gen: gen})
}

// handleReloadDone applies a reload completion, unless it went stale: the
// player left, died, or started a newer reload since the timer was set.
func (g *Game) handleReloadDone(c reloadDoneCmd) {
	player, ok := g.world.Player(c.id)
	if !ok {
		return
	}
	if !player.Reloading || player.ReloadGen != c.gen {
		return
	}
	player.FinishReload()
	g.sendTo(c.id, Envelope{T: MsgAmmoUpdate, Data: AmmoUpdateMsg{
		Magazine: player.Magazine,
		Ammo:     player.Ammo,
	}})
}

// handleRespawn puts a player back into play, unless the fire is stale or
// the player is somehow no longer dead.
func (g *Game) handleRespawn(c respawnCmd, now time.Time) {
	player, ok := g.world.Player(c.id)
	if !ok {
		return
	}
	if player.RespawnGen != c.gen || player.Alive() {
		return
	}

	player.Respawn(g.world.SpawnPoint())
	player.Touch(now)
	g.broadcast(Envelope{T: MsgPlayerRespawned, Data: RespawnMsg{
		ID:       player.ID,
		X:        player.Position.X,
		Y:        player.Position.Y,
		Z:        player.Position.Z,
		Health:   player.Health,
		Magazine: player.Magazine,
		Ammo:     player.Ammo,
	}}, "")
}

// step runs one tick: clamp deltaTime, advance the world, broadcast the
// frame, then sweep for idle sessions. Physics always settles before the
// broadcast is composed.
func (g *Game) step(now time.Time) {
	dt := now.Sub(g.lastTick).Seconds()
	if dt > MaxDeltaTime {
		dt = MaxDeltaTime
	}
	if dt < 0 {
		dt = 0
	}
	g.lastTick = now

	res := g.world.Step(now, dt)
	for _, victim := range res.Dead {
		g.scheduleRespawn(victim)
	}
	for _, d := range res.Deaths {
		g.stats.Track(StatEvent{Kind: EventDeath, PlayerID: d.VictimID, PlayerName: d.VictimName, At: now})
		if d.AttackerName != "unknown" && d.AttackerID != d.VictimID {
			g.stats.Track(StatEvent{Kind: EventKill, PlayerID: d.AttackerID, PlayerName: d.AttackerName, At: now})
		}
	}

	g.broadcastGameState(res)
	g.sweepIdle(now)

	g.ticks.Add(1)
	g.projectileCount.Store(int64(g.world.ProjectileCount()))
	RecordTick(now)
	CountHits(len(res.Hits))
	CountDeaths(len(res.Deaths))
	UpdateProjectileCount(g.world.ProjectileCount())
}

func (g *Game) scheduleRespawn(victim *Player) {
	g.afterFunc(g.settings.RespawnDelay, respawnCmd{id: victim.ID, gen: victim.RespawnGen})
}

// afterFunc schedules cmd to be posted back to the loop after d. The timer
// goroutine only posts; all validation happens on the loop.
func (g *Game) afterFunc(d time.Duration, cmd interface{}) {
	time.AfterFunc(d, func() { g.Post(cmd) })
}

// sweepIdle evicts every player silent past the inactivity threshold,
// through the same cleanup path as a disconnect.
func (g *Game) sweepIdle(now time.Time) {
	var idle []string
	g.world.EachPlayer(func(p *Player) {
		if p.IdleFor(now, g.settings.InactivityTimeout) {
			idle = append(idle, p.ID)
		}
	})
	for _, id := range idle {
		g.removePlayer(id, "inactivity")
	}
}

// broadcastGameState sends the tick frame: the complete player snapshot
// plus this tick's events, msgpack-encoded in a single binary frame.
func (g *Game) broadcastGameState(res stepResult) {
	data, err := msgpack.Marshal(GameStateMsg{
		Players:            g.world.Snapshot(),
		Hits:               res.Hits,
		Deaths:             res.Deaths,
		RemovedProjectiles: res.Removed,
	})
	if err != nil {
		g.log.Error().Err(err).Msg("game_state encode failed")
		return
	}
	for _, conn := range g.clients {
		conn.SendBinary(data)
	}
}

// broadcast marshals once and fans out to every client, optionally
// skipping one session. Send failures stay inside the individual conn.
func (g *Game) broadcast(env Envelope, exclude string) {
	data, err := json.Marshal(env)
	if err != nil {
		g.log.Error().Err(err).Str("type", env.T).Msg("broadcast encode failed")
		return
	}
	for id, conn := range g.clients {
		if id == exclude {
			continue
		}
		conn.SendRaw(data)
	}
}

// sendTo delivers a targeted message to one session, if still connected
func (g *Game) sendTo(id string, env Envelope) {
	if conn, ok := g.clients[id]; ok {
		conn.SendJSON(env)
	}
}

// PlayerCount reports the live player count. Readable from any goroutine;
// the status endpoint tolerates a slightly stale value.
func (g *Game) PlayerCount() int {
	return int(g.playerCount.Load())
}

// ProjectileCount reports the projectiles in flight as of the last tick
func (g *Game) ProjectileCount() int {
	return int(g.projectileCount.Load())
}

// Ticks reports how many simulation ticks have run
func (g *Game) Ticks() uint64 {
	return g.ticks.Load()
}
