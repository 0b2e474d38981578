package job

import "sync"

// Feed is a Sink that copies every Update to any number of subscribed
// channels. Delivery blocks until each subscriber has room, so subscribers
// must keep draining until their channel is closed. Close releases a
// blocked delivery, dropping its update.
type Feed struct {
	mu       sync.Mutex
	subs     []chan Update
	closed   bool
	done     chan struct{}
	inflight sync.WaitGroup
}

func (f *Feed) init() {
	if f.done == nil {
		f.done = make(chan struct{})
	}
}

// Subscribe returns a channel with buf slots of buffering. It is closed by
// Close. Subscribing to a closed feed returns a closed channel.
func (f *Feed) Subscribe(buf int) <-chan Update {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Update, buf)
	if f.closed {
		close(ch)
		return ch
	}

	f.subs = append(f.subs, ch)
	return ch
}

// Notify - Sink
func (f *Feed) Notify(u Update) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}

	f.init()
	subs := append([]chan Update(nil), f.subs...)
	done := f.done
	f.inflight.Add(1)
	f.mu.Unlock()

	defer f.inflight.Done()

	for _, ch := range subs {
		select {
		case ch <- u:
		case <-done:
			return
		}
	}
}

// Close ends every subscription. Later updates are dropped.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}

	f.closed = true
	f.init()
	close(f.done)
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	// Subscriber channels are only closed once no delivery can touch them
	f.inflight.Wait()
	for _, ch := range subs {
		close(ch)
	}
}
