package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/digineo/go-logwrap"
	"github.com/google/uuid"
)

var (
	// ErrUnknownTarget is returned for operations on IDs that were never
	// created or have been destroyed.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrInvalidGroup is returned for group tags outside [0, NumGroups).
	ErrInvalidGroup = errors.New("invalid group")

	Logger = &logwrap.Instance{}

	// SetLogger allows updating the Logger. For details, see
	// "github.com/digineo/go-logwrap".Instance.SetLogger.
	SetLogger = Logger.SetLogger
)

const (
	DefaultCadence = time.Second
	DefaultTimeout = 3 * time.Second

	defaultHistorySize = 64
)

// Monitor owns the set of targets and schedules their probes. Each due
// target is probed on its own goroutine, so a slow or unreachable host
// never delays the others.
type Monitor struct {
	Cadence time.Duration // minimum time between two probes of a target
	Timeout time.Duration // bounded wait for a single probe

	resolver Resolver
	prober   Prober
	now      func() time.Time

	targets map[ID]*target
	created uint64
	mtx     sync.RWMutex
	wg      sync.WaitGroup

	driver  sync.Mutex // guards stop and stopped
	stop    chan struct{}
	stopped chan struct{}
}

// New creates a Monitor. You need to call Create()/Destroy() to manage
// the monitored targets, and either TickAll() periodically or Start().
func New(resolver Resolver, prober Prober) *Monitor {
	return &Monitor{
		Cadence:  DefaultCadence,
		Timeout:  DefaultTimeout,
		resolver: resolver,
		prober:   prober,
		now:      time.Now,
		targets:  make(map[ID]*target),
	}
}

// Start drives TickAll every interval on a background goroutine. It
// panics if the driver is already running.
func (m *Monitor) Start(interval time.Duration) {
	m.driver.Lock()
	defer m.driver.Unlock()

	if m.stop != nil {
		panic("already started")
	}
	m.stop = make(chan struct{})
	m.stopped = make(chan struct{})

	go m.run(interval, m.stop, m.stopped)
}

// Stop brings the driver gracefully to a halt and waits for outstanding
// probes to finish. The Monitor may be started again afterwards.
func (m *Monitor) Stop() {
	m.driver.Lock()
	if m.stop != nil {
		close(m.stop)
		<-m.stopped
		m.stop, m.stopped = nil, nil
	}
	m.driver.Unlock()

	m.Wait()
}

// Wait blocks until no probe is outstanding.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) run(interval time.Duration, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.TickAll(m.now())
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.TickAll(m.now())
		}
	}
}

// TickAll starts a probe for every scanning target which is due at now.
// It never blocks on the network and may be called at any rate.
func (m *Monitor) TickAll(now time.Time) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	for _, t := range m.targets {
		m.tick(t, now)
	}
}

func (m *Monitor) tick(t *target, now time.Time) {
	t.Lock()
	defer t.Unlock()

	if t.destroyed {
		panic(fmt.Sprintf("monitor: tick for destroyed target %s", t.id))
	}
	if !t.due(now, m.Cadence) {
		return
	}

	t.inFlight = true
	m.wg.Add(1)
	go m.probe(t, t.name, t.address, t.session)
}

// probe resolves and probes addr, and records the outcome into t.
func (m *Monitor) probe(t *target, name, addr string, session uint64) {
	defer m.wg.Done()

	var outcome Outcome
	ip, err := m.resolver.Resolve(t.ctx, addr)
	if t.noteResolution(err) {
		if err != nil {
			Logger.Infof("target %q: %v", name, err)
		} else {
			Logger.Infof("target %q: %s resolves again", name, addr)
		}
	}
	if err != nil {
		outcome = Failure()
	} else {
		outcome = m.prober.Probe(t.ctx, ip, m.Timeout)
	}

	if t.ctx.Err() != nil {
		// destroyed in the meanwhile
		return
	}
	t.record(m.now(), outcome, session)
}

// Create adds a target and returns its ID.
func (m *Monitor) Create(spec Spec) (ID, error) {
	if err := validGroup(spec.Group); err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &target{
		id:      ID(uuid.New().String()),
		name:    spec.Name,
		address: spec.Address,
		group:   spec.Group,
		notes:   spec.Notes,
		history: NewHistory(defaultHistorySize),
		ctx:     ctx,
		cancel:  cancel,
	}
	t.setScanning(spec.Scanning)

	m.mtx.Lock()
	m.created++
	t.created = m.created
	m.targets[t.id] = t
	m.mtx.Unlock()

	Logger.Infof("target %s: created (%s, %s)", t.id, t.name, t.address)
	return t.id, nil
}

// Destroy removes a target. An outstanding probe is cancelled and its
// outcome discarded.
func (m *Monitor) Destroy(id ID) error {
	m.mtx.Lock()
	t, found := m.targets[id]
	if found {
		delete(m.targets, id)
	}
	m.mtx.Unlock()

	if !found {
		return ErrUnknownTarget
	}

	t.Lock()
	t.destroyed = true
	t.cancel()
	t.Unlock()

	Logger.Infof("target %s: removed", id)
	return nil
}

// List returns snapshots of all targets in creation order.
func (m *Monitor) List() []Snapshot {
	m.mtx.RLock()
	targets := make([]*target, 0, len(m.targets))
	for _, t := range m.targets {
		targets = append(targets, t)
	}
	m.mtx.RUnlock()

	sort.Slice(targets, func(i, j int) bool {
		return targets[i].created < targets[j].created
	})

	result := make([]Snapshot, len(targets))
	for i, t := range targets {
		result[i] = t.snapshot()
	}
	return result
}

// Get returns a snapshot of a single target.
func (m *Monitor) Get(id ID) (Snapshot, error) {
	t, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return t.snapshot(), nil
}

// SetScanning starts or stops probing a target. Starting clears the
// status until the first new probe completes; stopping keeps the last
// known status.
func (m *Monitor) SetScanning(id ID, on bool) error {
	return m.update(id, func(t *target) error {
		t.setScanning(on)
		return nil
	})
}

// SetGroup changes the cosmetic group of a target.
func (m *Monitor) SetGroup(id ID, group int) error {
	if err := validGroup(group); err != nil {
		return err
	}
	return m.update(id, func(t *target) error {
		t.group = group
		return nil
	})
}

// Rename changes the display name of a target.
func (m *Monitor) Rename(id ID, name string) error {
	return m.update(id, func(t *target) error {
		t.name = name
		return nil
	})
}

// SetAddress changes the host name or IP address of a target. It is
// resolved on the next probe; the history is kept.
func (m *Monitor) SetAddress(id ID, address string) error {
	return m.update(id, func(t *target) error {
		t.address = address
		return nil
	})
}

// SetNotes replaces the free-form notes of a target.
func (m *Monitor) SetNotes(id ID, notes string) error {
	return m.update(id, func(t *target) error {
		t.notes = notes
		return nil
	})
}

// Segments returns the runs of successful probes among the last window
// entries of a target's history.
func (m *Monitor) Segments(id ID, window int) ([][]Point, error) {
	t, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return t.history.Segments(window), nil
}

// History returns a copy of the last window entries of a target.
func (m *Monitor) History(id ID, window int) ([]Entry, error) {
	t, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return t.history.Window(window), nil
}

// Metrics aggregates the last window entries of a target. The result is
// nil if nothing was recorded yet.
func (m *Monitor) Metrics(id ID, window int) (*Metrics, error) {
	t, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return t.history.Compute(window), nil
}

// Export calculates the metrics for each target with at least one
// recorded probe and returns them as a simple map.
func (m *Monitor) Export(window int) map[ID]*Metrics {
	result := make(map[ID]*Metrics)

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	for id, t := range m.targets {
		if metrics := t.history.Compute(window); metrics != nil {
			result[id] = metrics
		}
	}

	return result
}

func (m *Monitor) lookup(id ID) (*target, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	if t, found := m.targets[id]; found {
		return t, nil
	}
	return nil, ErrUnknownTarget
}

func (m *Monitor) update(id ID, fn func(*target) error) error {
	t, err := m.lookup(id)
	if err != nil {
		return err
	}

	t.Lock()
	defer t.Unlock()
	return fn(t)
}

func validGroup(group int) error {
	if group < 0 || group >= NumGroups {
		return fmt.Errorf("%w: %d", ErrInvalidGroup, group)
	}
	return nil
}
