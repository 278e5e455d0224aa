package bot

import (
	"context"
	"sync"

	logger "github.com/sirupsen/logrus"

	"tradebotpro/src/ledger"
	"tradebotpro/src/model"
)

// Factory builds an instance for a user. The registry uses it so the
// HTTP layer can be tested with canned instances.
type Factory func(userID string, cfg model.BotConfig) (*Instance, error)

// Registry owns every live bot instance, keyed by user id. All
// methods are safe for concurrent use; start/stop of the same user is
// serialized so at most one instance per user is ever running.
type Registry struct {
	mu       sync.Mutex
	bots     map[string]*Instance
	locks    map[string]*sync.Mutex
	factory  Factory
	recorder ledger.Recorder
}

func NewRegistry() *Registry {
	return &Registry{
		bots:    make(map[string]*Instance),
		locks:   make(map[string]*sync.Mutex),
		factory: NewInstance,
	}
}

// userLock returns the per-user mutex guarding the stop-build-start
// sequence of Start and Stop.
func (r *Registry) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	return l
}

// WithFactory overrides instance construction.
func (r *Registry) WithFactory(f Factory) *Registry {
	r.factory = f
	return r
}

// WithRecorder attaches a trade log sink to every instance started
// from now on.
func (r *Registry) WithRecorder(rec ledger.Recorder) *Registry {
	r.recorder = rec
	return r
}

// Start creates and launches a bot for the user. A bot already
// running for that user is stopped and replaced. Concurrent starts
// for the same user are serialized; the later one wins.
func (r *Registry) Start(ctx context.Context, userID string, cfg model.BotConfig) error {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	old := r.bots[userID]
	delete(r.bots, userID)
	r.mu.Unlock()

	if old != nil {
		logger.WithField("user_id", userID).Info("Replacing running bot")
		old.Stop()
	}

	inst, err := r.factory(userID, cfg)
	if err != nil {
		return err
	}
	if r.recorder != nil {
		inst.WithRecorder(r.recorder)
	}

	inst.Start(ctx)

	r.mu.Lock()
	r.bots[userID] = inst
	r.mu.Unlock()
	return nil
}

// Stop halts the user's bot. Stopping a user without a bot is a
// no-op; the return value reports whether one was running.
func (r *Registry) Stop(userID string) bool {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	inst := r.bots[userID]
	delete(r.bots, userID)
	r.mu.Unlock()

	if inst == nil {
		return false
	}
	inst.Stop()
	return true
}

// Status returns the user's snapshot. Unknown users get the inactive
// zero snapshot rather than an error.
func (r *Registry) Status(userID string) model.StatusSnapshot {
	r.mu.Lock()
	inst := r.bots[userID]
	r.mu.Unlock()

	if inst == nil {
		return model.StatusSnapshot{IsActive: false, Symbols: []string{}}
	}
	return inst.Status()
}

// ActiveCount counts bots whose loop is running.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, inst := range r.bots {
		if inst.IsActive() {
			n++
		}
	}
	return n
}

// TotalUsers counts registered bots, running or not.
func (r *Registry) TotalUsers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bots)
}

// Snapshots returns the status of every registered bot, keyed by user
// id. Used by the websocket status stream.
func (r *Registry) Snapshots() map[string]model.StatusSnapshot {
	r.mu.Lock()
	bots := make(map[string]*Instance, len(r.bots))
	for id, inst := range r.bots {
		bots[id] = inst
	}
	r.mu.Unlock()

	out := make(map[string]model.StatusSnapshot, len(bots))
	for id, inst := range bots {
		out[id] = inst.Status()
	}
	return out
}

// ResetDailyAll clears the per-day counters of every registered bot.
// Driven by the external midnight scheduler.
func (r *Registry) ResetDailyAll() {
	for _, inst := range r.instances() {
		inst.ResetDaily()
	}
}

// ResetMonthlyAll clears the per-month P&L of every registered bot.
func (r *Registry) ResetMonthlyAll() {
	for _, inst := range r.instances() {
		inst.ResetMonthly()
	}
}

func (r *Registry) instances() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Instance, 0, len(r.bots))
	for _, inst := range r.bots {
		out = append(out, inst)
	}
	return out
}

// StopAll halts every bot. Called on server shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.bots))
	for id := range r.bots {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Stop(id)
	}
}
