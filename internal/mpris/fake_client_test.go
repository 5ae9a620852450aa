package mpris

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"
)

// fakeBusClient is a scriptable stub for watcher/subscriber tests. Tests
// inject bus signals through emit, which fans out to every channel
// registered via Signal, like the real connection does.
type fakeBusClient struct {
	mu sync.Mutex

	hasOwner    bool
	hasOwnerErr error

	addMatchErr error
	callErr     error

	addedMatches   int
	removedMatches int
	removedSignals int

	channels []chan<- *dbus.Signal
	called   chan string
}

func newFakeBusClient() *fakeBusClient {
	return &fakeBusClient{called: make(chan string, 8)}
}

func (f *fakeBusClient) Close() error { return nil }

func (f *fakeBusClient) AddMatchSignal(options ...dbus.MatchOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addMatchErr != nil {
		return f.addMatchErr
	}
	f.addedMatches++
	return nil
}

func (f *fakeBusClient) RemoveMatchSignal(options ...dbus.MatchOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedMatches++
	return nil
}

func (f *fakeBusClient) Signal(ch chan<- *dbus.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, ch)
}

func (f *fakeBusClient) RemoveSignal(ch chan<- *dbus.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedSignals++
	for i, registered := range f.channels {
		if registered == ch {
			f.channels = append(f.channels[:i], f.channels[i+1:]...)
			break
		}
	}
}

func (f *fakeBusClient) NameHasOwner(name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasOwner, f.hasOwnerErr
}

func (f *fakeBusClient) GetProperty(ctx context.Context, dest, path, iface, prop string) (dbus.Variant, error) {
	return dbus.Variant{}, nil
}

func (f *fakeBusClient) Call(ctx context.Context, dest, path, method string) error {
	f.mu.Lock()
	err := f.callErr
	f.mu.Unlock()
	f.called <- method
	return err
}

func (f *fakeBusClient) emit(sig *dbus.Signal) {
	f.mu.Lock()
	channels := append([]chan<- *dbus.Signal(nil), f.channels...)
	f.mu.Unlock()
	for _, ch := range channels {
		ch <- sig
	}
}
