package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	drainTimeout   = 5 * time.Second
)

// Dispatcher persists activity entries on a fixed set of workers using
// consistent hashing on the entity key, which keeps the entries of one
// record in order.
type Dispatcher struct {
	workers  []chan domain.Activity
	repo     ports.ActivityRepository
	log      zerolog.Logger
	wg       sync.WaitGroup
	observer Observer
}

// Observer is notified about queue events. Any method may be left nil.
type Observer struct {
	Enqueued func(worker int)
	Done     func(worker int, err error)
	Dropped  func()
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.ActivityRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Activity, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Activity, channelBuffer)
	}
	return d
}

// Observe installs hooks used for metrics. Call before Start.
func (d *Dispatcher) Observe(o Observer) { d.observer = o }

// Start launches all worker goroutines. Once ctx is cancelled each worker
// flushes its buffer and returns; Wait blocks until they have returned.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) Wait() { d.wg.Wait() }

// Record queues an entry for the worker responsible for its record.
// It never blocks: when that worker's buffer is full the entry is dropped.
func (d *Dispatcher) Record(activity domain.Activity) {
	idx := d.shardIndex(shardKey(activity))
	select {
	case d.workers[idx] <- activity:
		if d.observer.Enqueued != nil {
			d.observer.Enqueued(idx)
		}
	default:
		d.log.Warn().
			Str("entity", activity.Entity).
			Uint("entity_id", activity.EntityID).
			Int("worker_id", idx).
			Msg("activity queue full, entry dropped")
		if d.observer.Dropped != nil {
			d.observer.Dropped()
		}
	}
}

// Pending returns the number of entries waiting in each worker channel.
func (d *Dispatcher) Pending() []int {
	out := make([]int, len(d.workers))
	for i, ch := range d.workers {
		out[i] = len(ch)
	}
	return out
}

func shardKey(a domain.Activity) string {
	return a.Entity + ":" + strconv.FormatUint(uint64(a.EntityID), 10)
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Activity) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case activity, ok := <-ch:
			if !ok {
				return
			}
			d.insert(ctx, id, activity)
		}
	}
}

// drain persists what is still buffered after ctx is cancelled, bounded by
// drainTimeout. Entries left after the deadline are logged as lost.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.Activity) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	for {
		select {
		case activity, ok := <-ch:
			if !ok {
				return
			}
			if dctx.Err() != nil {
				d.log.Warn().Int("worker_id", id).Int("lost", len(ch)+1).Msg("activity drain timed out")
				return
			}
			d.insert(dctx, id, activity)
		default:
			return
		}
	}
}

func (d *Dispatcher) insert(ctx context.Context, id int, activity domain.Activity) {
	err := d.repo.Insert(ctx, &activity)
	if err != nil {
		d.log.Error().Err(err).
			Str("key", shardKey(activity)).
			Int("worker_id", id).
			Msg("activity insert failed")
	}
	if d.observer.Done != nil {
		d.observer.Done(id, err)
	}
}
