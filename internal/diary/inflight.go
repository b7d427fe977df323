package diary

import (
	"sync"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
)

// Ticket identifies one outstanding AI call
type Ticket struct {
	Session    string
	Date       string
	Slot       domain.MealSlot
	generation uint64
}

// slotKey is shared by every session: the bot and the API write one diary
type slotKey struct {
	date string
	slot domain.MealSlot
}

type sessionState struct {
	generation uint64
	date       string
	slot       domain.MealSlot
}

// Tracker guards against concurrent AI calls for the same meal and against
// responses that arrive after the session navigated elsewhere.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	inFlight map[slotKey]bool
}

func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[string]*sessionState),
		inFlight: make(map[slotKey]bool),
	}
}

func (t *Tracker) session(id string) *sessionState {
	st, ok := t.sessions[id]
	if !ok {
		st = &sessionState{}
		t.sessions[id] = st
	}
	return st
}

// Focus records that session now looks at (date, slot). Any call begun
// before a change of focus becomes stale.
func (t *Tracker) Focus(session, date string, slot domain.MealSlot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.session(session)
	if st.date == date && st.slot == slot {
		return
	}
	st.date = date
	st.slot = slot
	st.generation++
}

// Begin reserves (date, slot) for an AI call. It fails with ErrBusy while
// another call for the same meal is outstanding, whichever session started it.
func (t *Tracker) Begin(session, date string, slot domain.MealSlot) (Ticket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := slotKey{date: date, slot: slot}
	if t.inFlight[key] {
		return Ticket{}, apperrors.ErrBusy
	}
	st := t.session(session)
	if st.date != date || st.slot != slot {
		st.date = date
		st.slot = slot
		st.generation++
	}
	t.inFlight[key] = true
	return Ticket{Session: session, Date: date, Slot: slot, generation: st.generation}, nil
}

// Finish releases the meal and reports whether the ticket is still current
func (t *Tracker) Finish(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inFlight, slotKey{date: ticket.Date, slot: ticket.Slot})
	st, ok := t.sessions[ticket.Session]
	return ok && st.generation == ticket.generation
}

// Busy reports whether a call for (date, slot) is outstanding
func (t *Tracker) Busy(date string, slot domain.MealSlot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight[slotKey{date: date, slot: slot}]
}
