package job

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	updates []Update
}

func (r *recorder) Notify(u Update) {
	r.updates = append(r.updates, u)
}

func (r *recorder) statuses(item JobItemType) []RunningStatus {
	var res []RunningStatus
	for _, u := range r.updates {
		if u.Item != item {
			continue
		}
		if len(res) == 0 || res[len(res)-1] != u.Status.RunningStatus {
			res = append(res, u.Status.RunningStatus)
		}
	}
	return res
}

func TestTypes(t *testing.T) {
	expected := []string{
		"DetectBoard", "BootToISPMode", "Greeting", "InstallFlashBootloader",
		"FlashGreeting", "ChangeBaudRate", "InitializeFlash", "FlashFirmware", "Reboot",
	}

	var names []string
	for _, item := range Types() {
		names = append(names, item.String())
	}

	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Types() = %v, want %v", names, expected)
	}
}

func TestRunFinished(t *testing.T) {
	r := &recorder{}
	tr := NewTracker(r)

	if s := tr.Status(InstallFlashBootloader); s.RunningStatus != NotStarted || s.Progress != 0 {
		t.Fatalf("initial status = %+v", s)
	}

	err := tr.Run(InstallFlashBootloader, func(report func(float64)) error {
		report(0.512)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	expected := []Update{
		{InstallFlashBootloader, Status{Running, 0}},
		{InstallFlashBootloader, Status{Running, 0.512}},
		{InstallFlashBootloader, Status{Finished, 1}},
	}
	if !reflect.DeepEqual(r.updates, expected) {
		t.Errorf("updates = %v, want %v", r.updates, expected)
	}
	if s := tr.Status(InstallFlashBootloader); s != (Status{Finished, 1}) {
		t.Errorf("Status() = %+v", s)
	}
}

func TestRunError(t *testing.T) {
	r := &recorder{}
	tr := NewTracker(r)
	failure := errors.New("line dropped")

	err := tr.Run(FlashFirmware, func(report func(float64)) error {
		report(0.25)
		return failure
	})
	if err != failure {
		t.Fatalf("Run() error = %v, want the body's error unchanged", err)
	}

	if !reflect.DeepEqual(r.statuses(FlashFirmware), []RunningStatus{Running, Error}) {
		t.Errorf("statuses = %v", r.statuses(FlashFirmware))
	}

	s := tr.Status(FlashFirmware)
	if s.RunningStatus != Error || s.Progress != 0.25 {
		t.Errorf("Status() = %+v, want Error at 0.25", s)
	}
}

func TestProgressMonotonic(t *testing.T) {
	r := &recorder{}
	tr := NewTracker(r)

	tr.Run(FlashFirmware, func(report func(float64)) error {
		report(0.5)
		report(0.25)
		report(-1)
		report(7)
		return nil
	})

	last := -1.0
	for _, u := range r.updates {
		if u.Status.Progress < last {
			t.Errorf("progress went back from %v to %v", last, u.Status.Progress)
		}
		if u.Status.Progress < 0 || u.Status.Progress > 1 {
			t.Errorf("progress %v out of range", u.Status.Progress)
		}
		last = u.Status.Progress
	}
}

func TestOneStageAtATime(t *testing.T) {
	tr := NewTracker(nil)

	err := tr.Run(Greeting, func(func(float64)) error {
		if err := tr.Run(Reboot, func(func(float64)) error { return nil }); err == nil {
			t.Errorf("nested Run() succeeded")
		}

		if item, ok := tr.Current(); !ok || item != Greeting {
			t.Errorf("Current() = %v, %v", item, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if s := tr.Status(Reboot); s.RunningStatus != NotStarted {
		t.Errorf("nested stage status = %v", s.RunningStatus)
	}
}

func TestStageRunsOnce(t *testing.T) {
	tr := NewTracker(nil)
	tr.Run(Greeting, func(func(float64)) error { return nil })

	called := false
	if err := tr.Run(Greeting, func(func(float64)) error { called = true; return nil }); err == nil {
		t.Errorf("second Run() succeeded")
	}
	if called {
		t.Errorf("body of a finished stage ran again")
	}
}

func TestCurrentBeforeStart(t *testing.T) {
	if _, ok := NewTracker(nil).Current(); ok {
		t.Errorf("Current() reported a stage before any ran")
	}
}

func TestSnapshot(t *testing.T) {
	tr := NewTracker(nil)
	tr.Run(DetectBoard, func(func(float64)) error { return nil })

	snap := tr.Snapshot()
	if len(snap) != len(Types()) {
		t.Fatalf("Snapshot() has %d entries", len(snap))
	}
	if snap[DetectBoard].Status.RunningStatus != Finished {
		t.Errorf("DetectBoard = %v", snap[DetectBoard])
	}
	for _, u := range snap[1:] {
		if u.Status.RunningStatus != NotStarted {
			t.Errorf("%v = %v", u.Item, u.Status.RunningStatus)
		}
	}
}

func TestFeed(t *testing.T) {
	feed := &Feed{}
	a := feed.Subscribe(16)
	b := feed.Subscribe(0)

	var wg sync.WaitGroup
	var fromB []Update

	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range b {
			fromB = append(fromB, u)
		}
	}()

	tr := NewTracker(feed)
	tr.Run(Greeting, func(report func(float64)) error {
		report(0.5)
		return nil
	})
	feed.Close()
	wg.Wait()

	var fromA []Update
	for u := range a {
		fromA = append(fromA, u)
	}

	if len(fromA) != 3 {
		t.Errorf("first subscriber got %d updates, want 3", len(fromA))
	}
	if !reflect.DeepEqual(fromA, fromB) {
		t.Errorf("subscribers disagree: %v vs %v", fromA, fromB)
	}

	feed.Notify(Update{Item: Reboot})
	if _, ok := <-feed.Subscribe(1); ok {
		t.Errorf("subscription after Close() is open")
	}
}

func TestSinkFunc(t *testing.T) {
	var got Update
	var s Sink = SinkFunc(func(u Update) { got = u })

	s.Notify(Update{Item: Reboot, Status: Status{Finished, 1}})
	if got.Item != Reboot || got.Status.RunningStatus != Finished {
		t.Errorf("got %v", got)
	}
}

func TestStatusDone(t *testing.T) {
	tests := []struct {
		status   RunningStatus
		expected bool
	}{
		{NotStarted, false},
		{Running, false},
		{Finished, true},
		{Error, true},
	}

	for _, tt := range tests {
		if done := (Status{RunningStatus: tt.status}).Done(); done != tt.expected {
			t.Errorf("%v Done() = %v, want %v", tt.status, done, tt.expected)
		}
	}
}

func TestFeedStalledSubscriber(t *testing.T) {
	feed := &Feed{}
	stalled := feed.Subscribe(0)

	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		feed.Notify(Update{Item: Greeting})
	}()

	subscribed := make(chan struct{})
	go func() {
		defer close(subscribed)
		feed.Subscribe(1)
	}()

	select {
	case <-subscribed:
	case <-time.After(time.Second):
		t.Fatalf("Subscribe() blocked behind a stalled subscriber")
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		feed.Close()
	}()

	for _, ch := range []chan struct{}{closed, delivered} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("Close() did not release a blocked Notify()")
		}
	}

	if _, ok := <-stalled; ok {
		t.Errorf("stalled subscriber received the dropped update")
	}
}
