// Package session runs one play-through of a level: it owns the placed
// architecture, the running score and the tutorial position, and records
// completions into the player's progress.
package session

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cloud-architect-sim/core/architecture"
	"cloud-architect-sim/core/connection"
	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/core/level"
	"cloud-architect-sim/core/topology"
	"cloud-architect-sim/internal/config"
	"cloud-architect-sim/internal/errors"
	"cloud-architect-sim/internal/logging"
)

// Mode is the way a level is played
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeTutorial  Mode = "tutorial"
	ModeTimeTrial Mode = "time_trial"
)

// ParseMode validates a mode name. Empty selects ModeNormal.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeNormal:
		return ModeNormal, nil
	case ModeTutorial, ModeTimeTrial:
		return Mode(s), nil
	default:
		return "", errors.Newf(errors.TypeInput, "unknown mode: %s", s)
	}
}

// Outcome is the result of a validation attempt within a session
type Outcome struct {
	Result engine.ValidationResult `json:"result"`

	// Score is the session score after the attempt
	Score int  `json:"score"`
	Rank  Rank `json:"rank"`

	Completed bool `json:"completed"`

	// TimeTrialBonus is set when the score was doubled
	TimeTrialBonus bool `json:"time_trial_bonus,omitempty"`
}

// Session is one attempt at a level. It is not safe for concurrent use.
type Session struct {
	ID           string
	Mode         Mode
	Level        level.Spec
	Architecture *architecture.Architecture
	Score        int
	TutorialStep int

	// Deadline is set in time trial mode
	Deadline time.Time

	engine   *engine.Engine
	cfg      *config.Config
	progress *Progress
	finished bool
	now      func() time.Time
}

// New starts a session on a level the player has unlocked
func New(e *engine.Engine, cfg *config.Config, progress *Progress, levelID int, mode Mode) (*Session, error) {
	spec, err := e.Level(levelID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = NewProgress(cfg.Storage.Player)
	}
	if cfg.Game.UnlockAllLevels {
		progress.UnlockAll(cfg.Engine.MaxLevel)
	}
	if !progress.IsUnlocked(levelID) {
		return nil, errors.Newf(errors.TypeInput, "level %d is locked", levelID).
			WithContext("level_id", levelID)
	}

	a, err := e.NewArchitecture(levelID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:           uuid.NewString(),
		Mode:         mode,
		Level:        spec,
		Architecture: a,
		engine:       e,
		cfg:          cfg,
		progress:     progress,
		now:          time.Now,
	}
	if mode == ModeTimeTrial {
		s.Deadline = s.now().Add(time.Duration(cfg.Game.TimeTrialSeconds) * time.Second)
	}

	logging.Debug("session started",
		zap.String("session", s.ID),
		zap.Int("level", levelID),
		zap.String("mode", string(mode)))
	return s, nil
}

// Progress returns the player's progress
func (s *Session) Progress() *Progress {
	return s.progress
}

// Finished reports whether the level was completed or timed out
func (s *Session) Finished() bool {
	return s.finished
}

// TimeRemaining returns the time left in a time trial, or 0
func (s *Session) TimeRemaining() time.Duration {
	if s.Deadline.IsZero() {
		return 0
	}
	if left := s.Deadline.Sub(s.now()); left > 0 {
		return left
	}
	return 0
}

func (s *Session) expired() bool {
	return !s.Deadline.IsZero() && !s.now().Before(s.Deadline)
}

func (s *Session) checkOpen() error {
	if s.finished {
		return errors.New(errors.TypeInput, "session is finished")
	}
	if s.expired() {
		return errors.New(errors.TypeInput, "time is up")
	}
	return nil
}

// Place adds a service instance
func (s *Session) Place(serviceID string) (architecture.Ref, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	ref, err := s.Architecture.Place(serviceID)
	if err != nil {
		return "", err
	}
	s.advanceTutorial()
	return ref, nil
}

// Remove deletes an instance and its connections
func (s *Session) Remove(ref architecture.Ref) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.Architecture.Remove(ref)
}

// Connect links two instances. An accepted connection earns the
// correct connection score.
func (s *Session) Connect(source, target architecture.Ref) (connection.Result, error) {
	if err := s.checkOpen(); err != nil {
		return connection.Result{}, err
	}

	result, err := s.Architecture.Connect(source, target)
	if obs := s.engine.Observer(); obs != nil && result.Kind != "" {
		obs.ObserveConnection(result)
	}
	if err != nil {
		return result, err
	}

	s.Score += s.cfg.Scoring.CorrectConnection
	s.advanceTutorial()
	return result, nil
}

// Disconnect removes a link
func (s *Session) Disconnect(source, target architecture.Ref) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.Architecture.Disconnect(source, target)
}

// CurrentTutorialStep returns the text of the current tutorial step.
// It is empty outside tutorial mode.
func (s *Session) CurrentTutorialStep() string {
	if s.Mode != ModeTutorial {
		return ""
	}
	return level.CurrentStep(s.Level, s.TutorialStep)
}

func (s *Session) advanceTutorial() {
	if s.Mode != ModeTutorial {
		return
	}
	snap := s.Architecture.Snapshot()
	facts := topology.NewFacts(snap.ServiceList(), snap.ConnectionList())
	s.TutorialStep = level.Progress(s.Level, facts, s.TutorialStep)
}

// Validate evaluates the current architecture and applies the score
// delta. A valid architecture completes the level; in time trial mode
// the score is doubled first.
func (s *Session) Validate() (Outcome, error) {
	if err := s.checkOpen(); err != nil {
		return Outcome{}, err
	}

	result := s.engine.Validator.Validate(s.Level, s.Architecture.Snapshot())
	s.Score += result.ScoreDelta

	outcome := Outcome{Result: result}
	if result.Valid {
		if s.Mode == ModeTimeTrial {
			s.Score *= 2
			outcome.TimeTrialBonus = true
		}
		s.complete()
		outcome.Completed = true
	}

	outcome.Score = s.Score
	outcome.Rank = RankFor(s.Score, s.cfg.Ranks)
	return outcome, nil
}

// TimeOut ends an expired time trial. A positive score is doubled and
// recorded as a completion; otherwise the attempt simply ends.
func (s *Session) TimeOut() (Outcome, bool) {
	if s.finished || !s.expired() {
		return Outcome{}, false
	}

	var outcome Outcome
	if s.Score > 0 {
		s.Score *= 2
		s.complete()
		outcome.Completed = true
		outcome.TimeTrialBonus = true
	}
	s.finished = true

	outcome.Score = s.Score
	outcome.Rank = RankFor(s.Score, s.cfg.Ranks)
	return outcome, true
}

func (s *Session) complete() {
	rank := s.progress.Complete(s.Level.ID, s.Score, s.cfg.Ranks, s.cfg.Engine.MaxLevel)
	s.finished = true
	logging.Info("level completed",
		zap.String("session", s.ID),
		zap.Int("level", s.Level.ID),
		zap.Int("score", s.Score),
		zap.String("rank", string(rank)))
}

// Reset clears the architecture and the score. A time trial keeps
// its deadline.
func (s *Session) Reset() {
	s.Architecture.Reset()
	s.Score = 0
	s.TutorialStep = 0
	s.finished = false
}
