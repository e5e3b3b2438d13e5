// Package hotkey registers global keyboard shortcuts with the OS and
// delivers pressed events regardless of window focus.
package hotkey

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Modifier is a bitmask of modifier keys. Values match the Win32 MOD_*
// constants so the Windows backend can pass them through unchanged.
type Modifier uint16

const (
	ModAlt   Modifier = 0x0001
	ModCtrl  Modifier = 0x0002
	ModShift Modifier = 0x0004
	ModWin   Modifier = 0x0008
	// ModNoRepeat suppresses auto-repeat events while the combination
	// is held down.
	ModNoRepeat Modifier = 0x4000
)

// Key is a virtual key code.
type Key uint32

var (
	// ErrAlreadyTaken means the key combination is bound by this or
	// another process. Recoverable: retry with a different combination.
	ErrAlreadyTaken = errors.New("hotkey combination already taken")
	// ErrNotFound is returned by Unregister for an id with no live
	// registration. Unregister is idempotent; this is not a failure.
	ErrNotFound = errors.New("hotkey id not registered")
	// ErrInvalidKey rejects a zero key code before touching OS state.
	ErrInvalidKey = errors.New("invalid key code")
	// ErrRegistryClosed means the registry has been closed; using it
	// afterwards is a programming error.
	ErrRegistryClosed = errors.New("hotkey registry closed")
)

type registration struct {
	mods Modifier
	key  Key
}

// backend owns the native message-only window and the OS-level
// registrations. Implementations marshal calls onto the thread that
// created the window.
type backend interface {
	Register(id int, mods Modifier, key Key) error
	Unregister(id int) error
	Close() error
}

// Registry owns global hotkey registrations keyed by caller-assigned
// integer ids. At most one OS registration exists per id; registering
// an id again supersedes the previous combination. Closing the
// registry releases every outstanding registration before the native
// window goes away.
type Registry struct {
	log zerolog.Logger

	mu      sync.Mutex
	regs    map[int]registration
	handler func(id int)
	backend backend
	events  chan int
	closed  bool

	// replaced by tests
	newBackend func(fire func(id int)) (backend, error)
}

// New creates an empty registry. The native window is created lazily
// on the first successful Register call.
func New(log zerolog.Logger) *Registry {
	return &Registry{
		log:        log,
		regs:       make(map[int]registration),
		newBackend: newPlatformBackend,
	}
}

// SetHandler installs the pressed-event callback. The event carries
// only the id; mapping ids to actions is the caller's concern. The
// handler runs on a dispatch goroutine, never on the message thread.
func (r *Registry) SetHandler(h func(id int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
}

// Register binds the combination to id. Returns ErrAlreadyTaken when
// the combination is held elsewhere, ErrInvalidKey for a zero key
// code, and ErrRegistryClosed after Close. When re-registering an id
// fails, the id's previous combination is restored.
func (r *Registry) Register(id int, mods Modifier, key Key) error {
	if key == 0 {
		return ErrInvalidKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	if err := r.ensureBackendLocked(); err != nil {
		return err
	}

	// Re-registering an id supersedes the previous combination.
	old, hadOld := r.regs[id]
	if hadOld {
		if err := r.backend.Unregister(id); err != nil {
			return fmt.Errorf("superseding hotkey %d: %w", id, err)
		}
		delete(r.regs, id)
	}

	if err := r.backend.Register(id, mods, key); err != nil {
		// Restore the previous combination so a failed supersede
		// leaves the id bound rather than dead.
		if hadOld {
			if rbErr := r.backend.Register(id, old.mods, old.key); rbErr != nil {
				r.log.Error().Err(rbErr).Int("id", id).Msg("Lost previous hotkey while superseding")
			} else {
				r.regs[id] = old
			}
		}
		return err
	}
	r.regs[id] = registration{mods: mods, key: key}
	r.log.Debug().Int("id", id).Uint16("mods", uint16(mods)).Uint32("key", uint32(key)).Msg("Registered hotkey")
	return nil
}

// Unregister releases the registration for id. Unregistering an id
// that is not registered reports ErrNotFound and changes nothing.
func (r *Registry) Unregister(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	if _, exists := r.regs[id]; !exists {
		return ErrNotFound
	}
	if err := r.backend.Unregister(id); err != nil {
		return err
	}
	delete(r.regs, id)
	r.log.Debug().Int("id", id).Msg("Unregistered hotkey")
	return nil
}

// Close unregisters every outstanding id, then destroys the native
// window. Closing twice is a no-op.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if r.backend == nil {
		return nil
	}

	// Release all OS registrations before the window goes away;
	// destroying the window first would leak them until process exit.
	var firstErr error
	for id := range r.regs {
		if err := r.backend.Unregister(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.regs = make(map[int]registration)

	if err := r.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	r.backend = nil

	// The backend has fully stopped, so no more events can arrive.
	close(r.events)
	return firstErr
}

func (r *Registry) ensureBackendLocked() error {
	if r.backend != nil {
		return nil
	}
	b, err := r.newBackend(r.enqueue)
	if err != nil {
		return fmt.Errorf("creating hotkey backend: %w", err)
	}
	r.backend = b
	r.events = make(chan int, 64)
	go r.dispatch()
	return nil
}

// enqueue runs on the message thread and must not block it.
func (r *Registry) enqueue(id int) {
	select {
	case r.events <- id:
	default:
		r.log.Warn().Int("id", id).Msg("Dropping hotkey event, handler too slow")
	}
}

func (r *Registry) dispatch() {
	for id := range r.events {
		r.mu.Lock()
		h := r.handler
		r.mu.Unlock()
		if h != nil {
			h(id)
		}
	}
}
