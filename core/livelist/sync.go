package livelist

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/appraise/core"
)

var (
	ErrClosed         = errors.New("livelist: subscription closed")
	ErrAlreadyStarted = errors.New("livelist: already started")
	// ErrUnknownEvent is returned by a Decoder for frames the screen does not care about.
	ErrUnknownEvent = errors.New("livelist: unknown event")
)

// Frame is one raw server-push message.
type Frame struct {
	Name string
	Data string
}

// Stream yields frames until the connection ends. Err is nil on a clean end of stream.
type Stream interface {
	Next() bool
	Frame() Frame
	Err() error
	Close() error
}

// Opener opens the stream. Cancelling ctx must unblock a pending Next.
type Opener interface {
	Open(ctx context.Context) (Stream, error)
}

type OpenerFunc func(ctx context.Context) (Stream, error)

func (fn OpenerFunc) Open(ctx context.Context) (Stream, error) { return fn(ctx) }

// Decoder turns a frame into a typed event.
type Decoder[R Record] func(Frame) (Event[R], error)

// JSONDecoder decodes seedName frames as a JSON array of R and updateName frames as a single R.
func JSONDecoder[R Record](seedName, updateName string) Decoder[R] {
	return func(f Frame) (Event[R], error) {
		switch f.Name {
		case seedName:
			var records []R
			if err := json.Unmarshal([]byte(f.Data), &records); err != nil {
				return nil, errors.Wrapf(err, "decoding %s", f.Name)
			}
			seed := Seed[R]{Records: records[:0]}
			for _, r := range records {
				if r.RecordID() == "" {
					seed.Dropped++
					continue
				}
				seed.Records = append(seed.Records, r)
			}
			return seed, nil
		case updateName:
			var record R
			if err := json.Unmarshal([]byte(f.Data), &record); err != nil {
				return nil, errors.Wrapf(err, "decoding %s", f.Name)
			}
			if record.RecordID() == "" {
				return nil, errors.Errorf("decoding %s: record without id", f.Name)
			}
			return Upsert[R]{Record: record}, nil
		default:
			return nil, errors.Wrap(ErrUnknownEvent, f.Name)
		}
	}
}

type State int

const (
	Connecting State = iota
	Live
	// Lost means the transport failed; the subscription is over and the screen decides whether to retry.
	Lost
	// Closed means the screen tore the subscription down.
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Live:
		return "live"
	case Lost:
		return "lost"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Snapshot is what listeners see after every change.
type Snapshot[R Record] struct {
	State  State
	Seeded bool
	Items  []R
	Err    error
}

// Synchronizer owns one subscription for the lifetime of a screen.
type Synchronizer[R Record] struct {
	opener    Opener
	decode    Decoder[R]
	filter    Filter[R]
	logger    core.Logger
	listeners []func(Snapshot[R])

	notifyMu sync.Mutex
	mu       sync.Mutex
	coll     Collection[R]
	state    State
	seeded   bool
	err      error
	closed   bool
	started  bool
	cancel   context.CancelFunc
	done     chan struct{}
}

type Option[R Record] func(*Synchronizer[R])

func WithFilter[R Record](filter Filter[R]) Option[R] {
	return func(s *Synchronizer[R]) { s.filter = filter }
}

func WithLogger[R Record](logger core.Logger) Option[R] {
	return func(s *Synchronizer[R]) { s.logger = logger }
}

// WithListener registers fn to receive a snapshot after every change. fn must not block for long.
func WithListener[R Record](fn func(Snapshot[R])) Option[R] {
	return func(s *Synchronizer[R]) { s.listeners = append(s.listeners, fn) }
}

func New[R Record](opener Opener, decode Decoder[R], opts ...Option[R]) *Synchronizer[R] {
	s := &Synchronizer[R]{
		opener: opener,
		decode: decode,
		logger: core.NopLogger{},
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the stream and consumes it in the background until Close or a transport failure.
// An open failure is reported both as the returned error and as a Lost snapshot.
func (s *Synchronizer[R]) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	stream, err := s.opener.Open(ctx)
	if err != nil {
		close(s.done)
		if ctx.Err() == nil {
			s.Deliver(Failure{Err: err})
		}
		return errors.Wrap(err, "opening stream")
	}

	go s.consume(ctx, stream)
	return nil
}

func (s *Synchronizer[R]) consume(ctx context.Context, stream Stream) {
	defer close(s.done)
	defer func() { _ = stream.Close() }()

	for stream.Next() {
		frame := stream.Frame()
		ev, err := s.decode(frame)
		if err != nil {
			if errors.Is(err, ErrUnknownEvent) {
				s.logger.Debug("ignoring stream event", frame.Name)
			} else {
				s.logger.Warn("dropping malformed stream event", err)
			}
			continue
		}
		if seed, ok := ev.(Seed[R]); ok && seed.Dropped > 0 {
			s.logger.Warn("dropping seed records without id", frame.Name, seed.Dropped)
		}
		s.Deliver(ev)
	}

	if ctx.Err() != nil { // torn down
		return
	}
	err := stream.Err()
	if err == nil {
		err = errors.New("stream ended")
	}
	s.Deliver(Failure{Err: err})
}

// Deliver applies ev unless the subscription is over; it reports whether ev was applied.
// Late callbacks racing a teardown are dropped here.
func (s *Synchronizer[R]) Deliver(ev Event[R]) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	switch e := ev.(type) {
	case Failure:
		s.state = Lost
		s.err = core.ErrConnectionLost
		if e.Err != nil {
			s.err = errors.Wrap(core.ErrConnectionLost, e.Err.Error())
		}
		s.closed = true
		if s.cancel != nil {
			s.cancel()
		}
		s.logger.Warn("stream connection lost", e.Err)
	case Seed[R]:
		s.coll = Apply(s.coll, s.filter, ev)
		s.seeded = true
		s.state = Live
	default:
		s.coll = Apply(s.coll, s.filter, ev)
		s.state = Live
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Close tears the subscription down. It is idempotent; no event mutates state afterwards.
func (s *Synchronizer[R]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = Closed
	cancel := s.cancel
	started := s.started
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !started {
		close(s.done)
	}
}

// Done is closed once the background consumer has exited.
func (s *Synchronizer[R]) Done() <-chan struct{} {
	return s.done
}

func (s *Synchronizer[R]) Snapshot() Snapshot[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer[R]) Items() []R {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Items()
}

func (s *Synchronizer[R]) snapshotLocked() Snapshot[R] {
	return Snapshot[R]{
		State:  s.state,
		Seeded: s.seeded,
		Items:  s.coll.Items(),
		Err:    s.err,
	}
}

func (s *Synchronizer[R]) notify(snap Snapshot[R]) {
	for _, fn := range s.listeners {
		fn(snap)
	}
}
