package engine

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blockberries/zerotrust/evidence"
)

// monitorTickChannelSize is carried over from timeoutChannelSize in the
// teacher's TimeoutTicker. The monitor does not use it: ticks come
// straight from a time.Ticker, with no queue of its own.
const monitorTickChannelSize = 16

// Monitor is the turn/timeout enforcement loop (spec C6). It runs
// cooperatively on its own goroutine, polling the engine's pending
// action at a fixed tick and reporting a stall through the engine's
// reportViolation. Double moves and disallowed action types are not
// found by the tick: checkAppendedAction checks them synchronously when
// a peer action arrives.
// It performs no network I/O and holds no lock shared with the engine
// beyond what Engine itself exposes as thread-safe accessors.
//
// Grounded on engine/timeout.go's TimeoutTicker: context-cancellable
// goroutine, buffered channel, Start/Stop lifecycle, and an atomic
// dropped-tick counter — generalized here from round/step timeouts to
// a single periodic enforcement sweep.
type Monitor struct {
	mu sync.Mutex

	engine *Engine
	tick   time.Duration

	allowedActions map[string]struct{}

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	droppedTicks uint64
}

// NewMonitor builds a Monitor bound to eng, ticking every interval.
func NewMonitor(eng *Engine, tick time.Duration) *Monitor {
	return &Monitor{
		engine:         eng,
		tick:           tick,
		allowedActions: make(map[string]struct{}),
	}
}

// SetAllowedActions replaces the application-declared allowlist of
// action `data.type` values (spec's enforcement.set_allowed_actions). An
// empty set means every action type is permitted.
func (m *Monitor) SetAllowedActions(types []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowedActions = make(map[string]struct{}, len(types))
	for _, t := range types {
		m.allowedActions[t] = struct{}{}
	}
}

func (m *Monitor) isAllowed(actionType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.allowedActions) == 0 {
		return true
	}
	_, ok := m.allowedActions[actionType]
	return ok
}

// Start begins the periodic enforcement sweep. It is a no-op if already
// running.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(ctx)
}

// Stop halts the enforcement sweep and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := m.sweep(now); err != nil {
				atomic.AddUint64(&m.droppedTicks, 1)
				log.Printf("[WARN] monitor: sweep failed: %v", err)
			}
		}
	}
}

// sweep performs one enforcement check against the engine's current
// pending action. TIMEOUT_STALL only names the peer (spec §4.6): a
// pending action owed by self — the responder side, set the instant a
// peer action is verified and awaiting our own reply — carries no
// self-directed deadline and must never trigger here, or an honest
// responder would terminate itself before it gets a chance to answer.
func (m *Monitor) sweep(now time.Time) error {
	pending, ok := m.engine.PendingAction()
	if !ok {
		return nil
	}
	if pending.OwedBy == "" || pending.OwedBy == m.engine.SelfID() {
		return nil
	}

	nowMillis := now.UnixMilli()
	if nowMillis-pending.StartedAt > pending.TimeoutMS {
		ev := evidence.CheatEvidence{
			Kind:    evidence.TimeoutStall,
			Accused: pending.OwedBy,
			Witness: pending,
			At:      nowMillis,
		}
		return m.engine.reportViolation(ev)
	}
	return nil
}

// DroppedTicks returns how many enforcement sweeps got an error back from
// reportViolation. A report against an already-terminated engine is not
// an error and is not counted.
func (m *Monitor) DroppedTicks() uint64 {
	return atomic.LoadUint64(&m.droppedTicks)
}

// checkAppendedAction is called synchronously by the engine (not the
// monitor's own goroutine) when a peer action arrives, before it is
// appended (an action it flags is never appended), since
// double-move and disallowed-type detection must not wait for the next
// tick (spec: "If an appended peer action's participant_id != turn at
// the moment of append, emit DOUBLE_MOVE").
func (m *Monitor) checkAppendedAction(accused string, wasPeersTurn bool, actionType string, witness any, at int64) *evidence.CheatEvidence {
	if !wasPeersTurn {
		return &evidence.CheatEvidence{Kind: evidence.DoubleMove, Accused: accused, Witness: witness, At: at}
	}
	if !m.isAllowed(actionType) {
		return &evidence.CheatEvidence{Kind: evidence.InvalidMove, Accused: accused, Witness: witness, At: at}
	}
	return nil
}
