package examsession

import (
	"github.com/stemsi/certifypro-backend/internal/grading"
	"github.com/stemsi/certifypro-backend/internal/model"
)

// EventType names a session notification.
type EventType string

const (
	EventTick      EventType = "tick"
	EventSubmitted EventType = "submitted"
	EventAbandoned EventType = "abandoned"
)

// Event is pushed to subscribers on every tick and on the terminal transition.
type Event struct {
	Type             EventType         `json:"event"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Result           *model.ExamResult `json:"result,omitempty"`
	Grade            *grading.Result   `json:"grade,omitempty"`
}

const subscriberBuffer = 16

// Subscribe returns a channel of session events and a function that detaches
// it. The channel is closed after the terminal event. Slow subscribers miss
// ticks rather than blocking the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.state.Terminal() {
		if s.state == model.SessionStateSubmitted {
			grade := s.grade
			ch <- Event{Type: EventSubmitted, Result: s.result, Grade: &grade}
		} else {
			ch <- Event{Type: EventAbandoned}
		}
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) publishLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Terminal events must get through; drop the oldest tick.
			if ev.Type != EventTick {
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- ev:
				default:
				}
			}
		}
	}
}

func (s *Session) closeSubsLocked() {
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
