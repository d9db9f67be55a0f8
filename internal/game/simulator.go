package game

import (
	"context"
	"errors"
	"log"
	"time"
)

// FramePublisher receives a snapshot whenever a table changes on screen.
type FramePublisher interface {
	PublishFrame(token string, snap TableSnapshot, events []Event)
}

// Simulator steps every active table at a fixed tick rate.
type Simulator struct {
	manager   *TableManager
	publisher FramePublisher
	tickRate  int

	// collision events buffered per table until the shot settles
	pending map[string]*pendingEvents
}

type pendingEvents struct {
	table  *TableSession
	events []Event
}

func NewSimulator(manager *TableManager, publisher FramePublisher, tickRate int) *Simulator {
	if tickRate <= 0 {
		tickRate = 60
	}
	return &Simulator{
		manager:   manager,
		publisher: publisher,
		tickRate:  tickRate,
		pending:   make(map[string]*pendingEvents),
	}
}

// Start runs the tick loop until ctx is cancelled.
func (s *Simulator) Start(ctx context.Context) {
	log.Printf("[SIM] Simulator started at %d ticks/s", s.tickRate)
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(s.tickRate))
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				log.Println("[SIM] Simulator stopping")
				return
			case now := <-ticker.C:
				dt := now.Sub(last).Seconds()
				last = now
				s.Tick(dt)
			}
		}
	}()
}

// Tick advances every table with work to do by dt seconds and returns how
// many frames were published.
func (s *Simulator) Tick(dt float64) int {
	published := 0
	for _, t := range s.manager.ActiveTables() {
		if !t.NeedsStep() {
			continue
		}

		res, err := t.Advance(dt)
		if err != nil {
			if !errors.Is(err, ErrTableClosed) {
				log.Printf("[SIM] Failed to advance table %s: %v", t.Token, err)
			}
			continue
		}

		if len(res.Events) > 0 {
			p, ok := s.pending[t.Token]
			if !ok {
				p = &pendingEvents{table: t}
				s.pending[t.Token] = p
			}
			p.events = append(p.events, res.Events...)
		}

		if res.Moving || res.Settled {
			if s.publisher != nil {
				s.publisher.PublishFrame(t.Token, t.Snapshot(), res.Events)
			}
			published++
		}

		if res.Settled {
			s.settle(t)
		}
	}

	s.flushClosed()
	return published
}

// flushClosed persists the buffered events of tables closed mid-shot.
// Closed tables drop out of ActiveTables, so they never settle here.
func (s *Simulator) flushClosed() {
	for token, p := range s.pending {
		if p.table.IsActive() {
			continue
		}
		delete(s.pending, token)
		s.manager.RecordEvents(p.table, p.events)
		log.Printf("[SIM] Table %s closed mid-shot, flushed %d events", token, len(p.events))
	}
}

func (s *Simulator) settle(t *TableSession) {
	var events []Event
	if p, ok := s.pending[t.Token]; ok {
		events = p.events
		delete(s.pending, t.Token)
	}

	s.manager.RecordEvents(t, events)
	if err := s.manager.SaveSnapshot(t); err != nil {
		log.Printf("[SIM] Failed to save snapshot for %s: %v", t.Token, err)
	}
	snap := t.Snapshot()
	log.Printf("[SIM] Table %s settled at frame %d (%d events, %d balls on table)", t.Token, snap.Frame, len(events), snap.visibleBalls())
}
