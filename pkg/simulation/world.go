// Package simulation is the enclosing run loop around the flock core: a
// goakt actor owns the Sim, advances it on run requests and publishes
// committed snapshots to a consumer channel. The core itself stays
// single-threaded; the actor mailbox serializes every access to it.
package simulation

import (
	"time"

	"github.com/lao-tseu-is-alive/go-insect-flock/pkg/flock"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// batchSize bounds how many steps run per mailbox message, so a Stop request
// can interleave with a long run request instead of waiting behind it.
const batchSize = 64

// WorldSnapshot is pushed to the consumer after every processed batch.
type WorldSnapshot struct {
	Step   int
	Halted bool
	Agents flock.Snapshot
}

// WorldActor is the "Brain": it manages the authoritative flock state.
// Protocol: *wrapperspb.Int64Value asks for that many steps, *emptypb.Empty
// stops the run. Snapshots go out over the channel handed to NewWorldActor;
// a busy consumer skips frames, except for the final halted snapshot which
// is always delivered.
type WorldActor struct {
	cfg        *flock.Config
	sim        *flock.Sim
	snapshotCh chan<- *WorldSnapshot

	// --- Telemetry ---
	stepsSinceLog int
	lastLogTime   time.Time
}

var _ actor.Actor = (*WorldActor)(nil)

// NewWorldActor creates the world logic unit.
func NewWorldActor(snapshotCh chan<- *WorldSnapshot, cfg *flock.Config) *WorldActor {
	return &WorldActor{
		cfg:        cfg,
		snapshotCh: snapshotCh,
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	// A ConfigError here is fatal to the spawn: no world without a valid flock.
	if err := w.init(); err != nil {
		return err
	}
	ctx.ActorSystem().Logger().Info("World is hatching the flock...")
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("World started with a flock of %d insects", w.cfg.NumAgents)
		w.publish()

	case *wrapperspb.Int64Value:
		ran, err := w.runBatch(msg.GetValue())
		if err != nil {
			ctx.Logger().Errorf("simulation halted: %v", err)
		}
		w.logTelemetry(ctx)
		w.publish()
		if remaining := msg.GetValue() - ran; remaining > 0 && !w.sim.Halted() {
			// Re-enqueue the rest so other messages can interleave.
			ctx.Tell(ctx.Self(), wrapperspb.Int64(remaining))
		}

	case *emptypb.Empty:
		w.sim.Stop()
		ctx.Logger().Info("World stopped on request")
		w.publish()

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("World is shutdown...")
	return nil
}

func (w *WorldActor) init() error {
	sim, err := flock.New(w.cfg)
	if err != nil {
		return err
	}
	w.sim = sim
	w.lastLogTime = time.Now()
	return nil
}

// runBatch advances the sim by at most batchSize of the requested steps and
// reports how many of them were consumed. A step error halts the run; the
// core guarantees the last committed snapshot stays intact.
func (w *WorldActor) runBatch(requested int64) (int64, error) {
	n := requested
	if n > batchSize {
		n = batchSize
	}
	for i := int64(0); i < n; i++ {
		if w.sim.Halted() {
			return n, nil
		}
		if _, err := w.sim.Step(); err != nil {
			return n, err
		}
		w.stepsSinceLog++
	}
	return n, nil
}

func (w *WorldActor) publish() {
	snap := &WorldSnapshot{
		Step:   w.sim.StepCount(),
		Halted: w.sim.Halted(),
		Agents: w.sim.Snapshot(),
	}
	if snap.Halted {
		// The consumer must observe the final state.
		w.snapshotCh <- snap
		return
	}
	select {
	case w.snapshotCh <- snap:
	default:
		// Consumer busy, skip frame
	}
}

func (w *WorldActor) logTelemetry(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) < time.Second {
		return
	}
	ctx.Logger().Infof("📊 STEP RATE: %d/sec | step: %d | centroid: %s",
		w.stepsSinceLog, w.sim.StepCount(), w.sim.Snapshot().Centroid())
	w.stepsSinceLog = 0
	w.lastLogTime = time.Now()
}
