package monitor

import (
	"context"
	"sync"
	"time"
)

// NumGroups is the number of cosmetic groups a target can be tagged with.
const NumGroups = 5

// Status is the derived reachability of a target.
type Status int8

const (
	StatusUnknown Status = iota // no probe completed in this scanning session
	StatusUp                    // last probe was answered
	StatusDown                  // last probe was lost
)

func (s Status) String() string {
	switch s {
	case StatusUp:
		return "up"
	case StatusDown:
		return "down"
	default:
		return "unknown"
	}
}

func statusOf(o Outcome) Status {
	if o.OK() {
		return StatusUp
	}
	return StatusDown
}

// ID identifies a target within a Monitor.
type ID string

// Spec describes a target to create.
type Spec struct {
	Name     string
	Address  string
	Group    int
	Notes    string
	Scanning bool
}

// Snapshot is a point-in-time copy of a target's public state.
type Snapshot struct {
	ID       ID
	Name     string
	Address  string
	Group    int
	Notes    string
	Scanning bool
	Status   Status
	LastSeen time.Time // completion time of the last probe, zero if none
}

// target represents a monitored host.
type target struct {
	id      ID
	name    string
	address string
	group   int
	notes   string
	created uint64 // creation order

	scanning  bool
	session   uint64    // incremented on every off→on toggle
	status    Status    // result of the current session
	lastProbe time.Time // completion time of the last probe
	inFlight  bool      // a probe is outstanding
	destroyed bool

	resolveErr string // last name lookup error, empty on success

	history *History
	ctx     context.Context
	cancel  context.CancelFunc
	sync.Mutex
}

// due reports whether a probe should be started at now. Callers must hold
// the lock.
func (t *target) due(now time.Time, cadence time.Duration) bool {
	if !t.scanning || t.inFlight {
		return false
	}
	return t.status == StatusUnknown || now.Sub(t.lastProbe) > cadence
}

// setScanning toggles scanning. Switching it on discards the status of
// the previous session. Callers must hold the lock.
func (t *target) setScanning(on bool) {
	if on && !t.scanning {
		t.session++
		t.status = StatusUnknown
	}
	t.scanning = on
}

// record stores the outcome of a probe started in session. Results of an
// earlier session are logged but leave the status alone.
func (t *target) record(at time.Time, o Outcome, session uint64) {
	t.Lock()
	defer t.Unlock()

	t.inFlight = false
	t.lastProbe = at
	t.history.Add(at, o)

	if session == t.session {
		t.status = statusOf(o)
	} else {
		Logger.Infof("target %s: discarding status of stale probe (%v)", t.id, o)
	}
}

// noteResolution stores the outcome of a name lookup and reports whether
// it differs from the previous one.
func (t *target) noteResolution(err error) bool {
	t.Lock()
	defer t.Unlock()

	var msg string
	if err != nil {
		msg = err.Error()
	}
	changed := msg != t.resolveErr
	t.resolveErr = msg
	return changed
}

func (t *target) snapshot() Snapshot {
	t.Lock()
	defer t.Unlock()

	return Snapshot{
		ID:       t.id,
		Name:     t.name,
		Address:  t.address,
		Group:    t.group,
		Notes:    t.notes,
		Scanning: t.scanning,
		Status:   t.status,
		LastSeen: t.lastProbe,
	}
}
