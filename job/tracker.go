package job

import (
	"sync"

	"github.com/pkg/errors"
)

// Tracker owns the Status of every stage of one session. Stages run one
// at a time and each goes through NotStarted, Running and then Finished
// or Error exactly once.
type Tracker struct {
	mu       sync.Mutex
	sink     Sink
	statuses [itemCount]Status
	current  JobItemType
	running  bool
	started  bool
}

// NewTracker - All stages NotStarted. sink may be nil.
func NewTracker(sink Sink) *Tracker {
	return &Tracker{sink: sink}
}

// Run executes body as stage item. body reports intermediate progress
// through report; values are clamped to 0..1 and never go backwards.
// The error of body is returned unchanged.
func (t *Tracker) Run(item JobItemType, body func(report func(progress float64)) error) error {
	if err := t.start(item); err != nil {
		return err
	}

	err := body(func(progress float64) {
		t.report(item, progress)
	})

	t.finish(item, err)
	return err
}

func (t *Tracker) start(item JobItemType) error {
	t.mu.Lock()

	if item < 0 || int(item) >= itemCount {
		t.mu.Unlock()
		return errors.Errorf("unknown stage %v", item)
	}
	if t.running {
		t.mu.Unlock()
		return errors.Errorf("stage %v started while %v is running", item, t.current)
	}
	if t.statuses[item].RunningStatus != NotStarted {
		t.mu.Unlock()
		return errors.Errorf("stage %v already ran", item)
	}

	t.current = item
	t.running = true
	t.started = true
	u := t.set(item, Status{RunningStatus: Running})

	t.mu.Unlock()
	t.emit(u)
	return nil
}

func (t *Tracker) report(item JobItemType, progress float64) {
	t.mu.Lock()

	s := t.statuses[item]
	if s.RunningStatus != Running {
		t.mu.Unlock()
		return
	}

	if progress > 1 {
		progress = 1
	}
	if progress > s.Progress {
		s.Progress = progress
	}

	u := t.set(item, s)

	t.mu.Unlock()
	t.emit(u)
}

func (t *Tracker) finish(item JobItemType, err error) {
	t.mu.Lock()

	s := t.statuses[item]
	if err != nil {
		s.RunningStatus = Error
	} else {
		s = Status{RunningStatus: Finished, Progress: 1}
	}

	t.running = false
	u := t.set(item, s)

	t.mu.Unlock()
	t.emit(u)
}

func (t *Tracker) set(item JobItemType, s Status) Update {
	t.statuses[item] = s
	return Update{Item: item, Status: s}
}

func (t *Tracker) emit(u Update) {
	if t.sink != nil {
		t.sink.Notify(u)
	}
}

// Status - Current status of item
func (t *Tracker) Status(item JobItemType) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if item < 0 || int(item) >= itemCount {
		return Status{}
	}
	return t.statuses[item]
}

// Current returns the running stage, or the last one that ran. ok is
// false before the first stage starts.
func (t *Tracker) Current() (item JobItemType, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.current, t.started
}

// Snapshot - Status of every stage in session order
func (t *Tracker) Snapshot() []Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	updates := make([]Update, itemCount)
	for i, s := range t.statuses {
		updates[i] = Update{Item: JobItemType(i), Status: s}
	}
	return updates
}
