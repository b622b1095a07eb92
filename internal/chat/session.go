package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a copy of the session taken at one instant. Front-ends render
// purely from it.
type State struct {
	SessionID string
	StartedAt time.Time

	// Version increases with every mutation so consumers can drop
	// snapshots that arrive out of order.
	Version uint64

	Turns   []Turn
	Display []DisplayMessage

	Location         *Location
	LocationResolved bool
	LastKnownCity    *string

	Typing bool
}

// Session owns the conversation state of the single active chat.
// All mutations go through the Coordinator or ResolveLocation.
type Session struct {
	id        string
	startedAt time.Time

	mu               sync.Mutex
	version          uint64
	turns            []Turn
	display          []DisplayMessage
	location         *Location
	locationResolved bool
	lastKnownCity    *string
	inFlight         int
	seq              uint64

	observers    map[int]func(State)
	nextObserver int
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{
		id:        uuid.New().String(),
		startedAt: time.Now(),
		turns:     []Turn{},
		display:   []DisplayMessage{},
		observers: make(map[int]func(State)),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a deep copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to be called with a fresh snapshot after every
// mutation. fn runs on the goroutine that made the change, outside the
// session lock. The returned func removes the subscription.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// ResolveLocation records the outcome of location acquisition. Only the
// first call has an effect; nil records a failed acquisition.
func (s *Session) ResolveLocation(loc *Location) bool {
	s.mu.Lock()
	if s.locationResolved {
		s.mu.Unlock()
		return false
	}
	s.locationResolved = true
	if loc != nil {
		l := *loc
		s.location = &l
	}
	s.publishLocked()
	return true
}

// stage applies the optimistic half of a turn: the user bubble appears and
// the typing flag goes up. The user Turn is only returned, not committed.
func (s *Session) stage(input string) *Pending {
	s.mu.Lock()

	s.seq++
	turn := Turn{Role: RoleUser, Content: input}

	history := make([]Turn, 0, len(s.turns)+1)
	history = append(history, s.turns...)
	history = append(history, turn)

	p := &Pending{
		Seq:  s.seq,
		Turn: turn,
		Request: Request{
			Message:       input,
			History:       history,
			Location:      copyLocation(s.location),
			LastKnownCity: copyString(s.lastKnownCity),
		},
	}

	s.display = append(s.display, DisplayMessage{Sender: SenderUser, Text: input})
	s.inFlight++

	s.publishLocked()
	return p
}

// commit settles a successful turn
func (s *Session) commit(p *Pending, reply Reply) {
	s.mu.Lock()

	if reply.City != nil && *reply.City != "" {
		s.lastKnownCity = copyString(reply.City)
	}
	s.turns = append(s.turns, p.Turn, Turn{Role: RoleAssistant, Content: reply.Response})
	s.display = append(s.display, DisplayMessage{Sender: SenderBot, Text: reply.Response})
	s.endRequestLocked()

	s.publishLocked()
}

// fail settles a failed turn. The Conversation Store is left alone.
func (s *Session) fail(p *Pending) {
	s.mu.Lock()

	s.display = append(s.display, DisplayMessage{Sender: SenderBot, Text: ErrorText})
	s.endRequestLocked()

	s.publishLocked()
}

func (s *Session) endRequestLocked() {
	if s.inFlight > 0 {
		s.inFlight--
	}
}

// publishLocked bumps the version, releases the lock and notifies
// observers. Must be called with s.mu held; returns with it released.
func (s *Session) publishLocked() {
	s.version++
	state := s.snapshotLocked()
	observers := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}

func (s *Session) snapshotLocked() State {
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	display := make([]DisplayMessage, len(s.display))
	copy(display, s.display)

	return State{
		SessionID:        s.id,
		StartedAt:        s.startedAt,
		Version:          s.version,
		Turns:            turns,
		Display:          display,
		Location:         copyLocation(s.location),
		LocationResolved: s.locationResolved,
		LastKnownCity:    copyString(s.lastKnownCity),
		Typing:           s.inFlight > 0,
	}
}

func copyLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
