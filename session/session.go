package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/analysis"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/eval"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/synth"
)

const subscriberBuffer = 16

// Session ties one loaded score to a running engine, a pitch source and an
// evaluator, and fans classified feedback out to subscribers. Transport and
// settings mutations all go through here so evaluation state is reset at
// exactly the boundaries that require it.
type Session struct {
	ID string

	engine    *synth.Engine
	source    analysis.Source
	settings  *eval.SettingsHolder
	evaluator *eval.Evaluator
	timeline  *model.Timeline

	mu        sync.Mutex
	subs      map[int]chan model.Feedback
	nextSub   int
	onState   func()
	started   bool
	closed    bool
	debounced func(func())

	resetPending atomic.Bool
	last         atomic.Pointer[model.Feedback]
	wg           sync.WaitGroup
}

// New wires a session together. An empty base.Voice selects the first voice
// in the score.
func New(tl *model.Timeline, engine *synth.Engine, source analysis.Source, base model.Settings) *Session {
	if base.Voice == "" {
		if voices := tl.Voices(); len(voices) > 0 {
			base.Voice = voices[0]
		}
	}
	s := &Session{
		ID:        uuid.NewString(),
		engine:    engine,
		source:    source,
		settings:  eval.NewSettingsHolder(base),
		timeline:  tl,
		subs:      make(map[int]chan model.Feedback),
		debounced: debounce.New(100 * time.Millisecond),
	}
	s.evaluator = eval.NewEvaluator(engine, s.settings)
	s.evaluator.SetNotes(tl.NotesForVoice(base.Voice))

	// Auto-loop is an evaluation boundary like any other restart.
	engine.SetLoopCallback(func() {
		s.resetPending.Store(true)
		s.notifyState()
	})
	return s
}

// Start begins consuming pitch events. Events are processed strictly in the
// order the source produced them.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	events, err := s.source.Start()
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		st := s.evaluator.Reset()
		for ev := range events {
			if s.resetPending.Swap(false) {
				st = s.evaluator.Reset()
			}
			var fb model.Feedback
			st, fb = s.evaluator.Process(st, ev)

			if fb.Target.HasHint {
				s.source.SetHint(fb.Target.HintMidi)
			} else {
				s.source.SetHint(-1)
			}
			s.last.Store(&fb)
			s.publish(fb)
		}
	}()
	return nil
}

// Subscribe returns a feedback channel and its cancel func. Slow consumers
// lose frames rather than stalling the pipeline.
func (s *Session) Subscribe() (<-chan model.Feedback, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan model.Feedback, subscriberBuffer)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Session) publish(fb model.Feedback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- fb:
		default:
		}
	}
}

// LastFeedback is the most recent tick, for pull-style consumers.
func (s *Session) LastFeedback() (model.Feedback, bool) {
	if fb := s.last.Load(); fb != nil {
		return *fb, true
	}
	return model.Feedback{}, false
}

// SetOnStateChange registers a callback for transport or settings changes.
// Bursts (a user dragging the seek bar) coalesce into one call.
func (s *Session) SetOnStateChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}

func (s *Session) notifyState() {
	s.mu.Lock()
	fn := s.onState
	deb := s.debounced
	s.mu.Unlock()
	if fn != nil {
		deb(fn)
	}
}

func (s *Session) Play() {
	s.engine.Play()
	s.notifyState()
}

func (s *Session) Pause() {
	s.engine.Pause()
	s.notifyState()
}

func (s *Session) Stop() {
	s.engine.Stop()
	s.resetPending.Store(true)
	s.notifyState()
}

func (s *Session) SeekTo(t float64) {
	s.engine.SeekTo(t)
	s.resetPending.Store(true)
	s.notifyState()
}

func (s *Session) SetTempoMultiplier(m float64) {
	s.engine.SetTempoMultiplier(m)
	s.notifyState()
}

func (s *Session) SetVoiceMix(voice string, upd model.VoiceMixUpdate) {
	s.engine.SetVoiceSettings(voice, upd)
	s.notifyState()
}

// SelectVoice switches which part is being evaluated.
func (s *Session) SelectVoice(voice string) error {
	found := false
	for _, v := range s.timeline.Voices() {
		if v == voice {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown voice %q", voice)
	}
	s.settings.Update(func(cfg model.Settings) model.Settings {
		cfg.Voice = voice
		return cfg
	})
	s.evaluator.SetNotes(s.timeline.NotesForVoice(voice))
	s.resetPending.Store(true)
	s.notifyState()
	return nil
}

// SetDifficulty swaps in a preset, preserving voice and latency offset.
func (s *Session) SetDifficulty(name string) {
	s.settings.Update(func(cfg model.Settings) model.Settings {
		next := model.DifficultySettings(name)
		next.Voice = cfg.Voice
		next.LatencyOffsetMs = cfg.LatencyOffsetMs
		return next
	})
	s.resetPending.Store(true)
	s.notifyState()
}

func (s *Session) SetLatencyOffset(ms float64) {
	s.settings.Update(func(cfg model.Settings) model.Settings {
		cfg.LatencyOffsetMs = ms
		return cfg
	})
	s.notifyState()
}

func (s *Session) Settings() model.Settings {
	return s.settings.Load()
}

func (s *Session) Transport() model.TransportState {
	return s.engine.Transport()
}

func (s *Session) Timeline() *model.Timeline {
	return s.timeline
}

func (s *Session) Engine() *synth.Engine {
	return s.engine
}

// Close tears the pipeline down exactly once: the source first, so the
// consumer drains and exits, then the engine and subscriber channels.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.source.Stop()
	s.wg.Wait()
	s.engine.Dispose()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
