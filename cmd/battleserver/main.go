// Command battleserver runs the HTTP/websocket front door for battlecore
// sessions and drives each session's per-frame loop: an opening
// card-select turn boundary (internal/cardselect) followed by rollback
// netplay simulation stepping (internal/netplay). Each session owns its
// own internal/scripting Host/Bridge pair so content packages registered
// against it can wire scripted behavior into an Action's callbacks;
// package distribution itself is out of scope here (no
// package-repository HTTP server).
package main

import (
	"log"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"battlecore/internal/api"
	"battlecore/internal/battle"
	"battlecore/internal/cardselect"
	"battlecore/internal/config"
	"battlecore/internal/netplay"
	"battlecore/internal/scripting"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("battleserver: no .env file found, using process environment: %v", err)
	}
	cfg := config.Load()

	go func() {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("battleserver: debug server exited: %v", err)
		}
	}()

	store := api.NewSessionStore()
	server := api.NewServer(store)
	defer server.Stop()

	runner := newSessionRunner(store, cfg)
	go runner.run()

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	log.Printf("battleserver listening on %s", addr)
	if err := server.Start(addr); err != nil {
		log.Fatalf("battleserver: %v", err)
	}
}

// sessionRunner polls the session store for sessions whose Simulation has
// at least one Player and drives their per-frame loop at the configured
// tick rate.
// It is deliberately simple: one goroutine, one ticker, every session
// advanced in turn. A session this busy never justifies its own process
// in this exercise's scope (§3 Non-goals: no horizontal scaling story).
type sessionRunner struct {
	store *api.SessionStore
	cfg   config.AppConfig
	loops map[string]*battleLoop
}

func newSessionRunner(store *api.SessionStore, cfg config.AppConfig) *sessionRunner {
	return &sessionRunner{
		store: store,
		cfg:   cfg,
		loops: make(map[string]*battleLoop),
	}
}

func (r *sessionRunner) run() {
	tickRate := r.cfg.Battle.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	for range ticker.C {
		r.tickAll()
	}
}

func (r *sessionRunner) tickAll() {
	for _, id := range r.store.IDs() {
		sess, ok := r.store.Get(id)
		if !ok {
			r.forget(id)
			continue
		}

		loop, ok := r.loops[id]
		if !ok {
			if len(sess.Sim.Players) == 0 {
				continue
			}
			loop = r.newBattleLoop(sess)
			r.loops[id] = loop
		}
		loop.step()
		api.UpdatePeerCount(sess.Hub.PeerCount())
	}
	api.UpdateSessionCount(r.store.Count())
}

func (r *sessionRunner) forget(id string) {
	if loop, ok := r.loops[id]; ok {
		loop.host.Close()
		delete(r.loops, id)
	}
}

func (r *sessionRunner) newBattleLoop(sess *api.Session) *battleLoop {
	peers := make([]int, 0, sess.Hub.PeerCount())
	for slot := 0; slot < netplay.MaxPeersPerSession; slot++ {
		if sess.Sim.Players[slot] != nil {
			peers = append(peers, slot)
		}
	}

	// Every session gets its own namespace-isolated scripting host: the
	// "local" and "built-in" namespaces are global strings, so sharing
	// one Host across sessions would let one battle's local VM collide
	// with another's (§4.5 namespace isolation).
	host := scripting.NewHost(len(peers)+2, time.Duration(r.cfg.Scripting.ScriptTimeoutMS)*time.Millisecond)
	loop := &battleLoop{sess: sess, peers: peers, host: host}
	loop.bridge = scripting.NewBridge(loop.currentContext, host)

	loop.controller = cardselect.NewController(peers)
	loop.coord = netplay.NewCoordinator(sess.Hub, sess.Sim, loop.controller, peers[0], peers)
	return loop
}

// battleLoop owns one session's turn-boundary/simulation alternation plus
// the scripting host its cards' Action callbacks run against.
type battleLoop struct {
	sess       *api.Session
	coord      *netplay.Coordinator
	controller *cardselect.Controller
	peers      []int

	host   *scripting.Host
	bridge *scripting.Bridge
	ctx    *battle.Context
}

// currentContext is handed to scripting.NewBridge so every bound function
// resolves against whichever frame is being processed when a script calls
// back into it — set at the top of step, before anything in this frame
// can invoke the bridge.
func (l *battleLoop) currentContext() *battle.Context {
	return l.ctx
}

// step advances one frame: the opening card-select turn boundary runs to
// completion first (its Controller consumes input and resolves into
// queued actions once every peer confirms), then the rollback Coordinator
// steps the simulation every frame thereafter until the win condition
// ends it (§4.6, §4.7). This models one battle encounter per session —
// resolving into another card-select round mid-battle is outside this
// exercise's scope (§3 Non-goals).
func (l *battleLoop) step() {
	if l.sess.Sim.Ended {
		return
	}
	l.ctx = &battle.Context{Sim: l.sess.Sim}

	start := time.Now()
	l.coord.Tick()
	api.RecordTick(time.Since(start))

	if l.controller.Phase != cardselect.PhaseDone {
		l.controller.Step(l.ctx)
	}
}
