package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/promptician/internal/observability"
)

// EventStateChanged is published after every session transition.
const EventStateChanged = "session.state_changed"

// State is a step of the playground workflow.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateLoaded     State = "loaded"
)

// SessionConfig contains playground settings.
type SessionConfig struct {
	Defaults

	// RequestTimeout bounds a single completion call, in seconds.
	RequestTimeout int `env:"SESSION_REQUEST_TIMEOUT" envDefault:"90"`
}

// Evaluation is the rating and star selection for the pending result.
type Evaluation struct {
	Rating  *Rating `json:"rating"`
	Star    bool    `json:"star"`
	Enabled bool    `json:"enabled"`

	// unstarred is set while a loaded record without a star value has not
	// been re-evaluated; saves then keep the star absent.
	unstarred bool
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	ID         string            `json:"id"`
	State      State             `json:"state"`
	Editable   bool              `json:"editable"`
	Fields     Fields            `json:"fields"`
	Pending    *CompletionResult `json:"pending,omitempty"`
	Output     string            `json:"output"`
	Staged     bool              `json:"staged"`
	InProgress bool              `json:"in_progress"`
	Evaluation Evaluation        `json:"evaluation"`
	Message    string            `json:"message,omitempty"`
}

// SessionService is the playground workflow: it builds requests from the
// edited fields, calls the completion client, and persists results as records.
// At most one request is outstanding at a time.
type SessionService struct {
	store     RecordStore
	client    CompletionClient
	publisher EventPublisher
	defaults  Defaults
	timeout   time.Duration
	id        string

	mu         sync.Mutex
	state      State
	editable   bool
	fields     Fields
	pending    *CompletionResult
	output     string
	staged     bool
	eval       Evaluation
	message    string
	generation uint64
}

// NewSessionService creates a session in the idle state (DI constructor).
func NewSessionService(
	cfg *SessionConfig,
	store RecordStore,
	client CompletionClient,
	publisher EventPublisher,
) *SessionService {
	s := &SessionService{
		store:     store,
		client:    client,
		publisher: publisher,
		defaults:  cfg.Defaults,
		timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
		id:        uuid.New().String(),
	}
	s.resetLocked()
	return s
}

// ID returns the session identifier used in logs and events.
func (s *SessionService) ID() string {
	return s.id
}

// Snapshot returns the current state.
func (s *SessionService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Reset clears the pending result and restores every field to its default.
// An outstanding request is superseded.
func (s *SessionService) Reset(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	s.resetLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(ctx, snap)
}

// SetFields replaces the editable inputs.
func (s *SessionService) SetFields(ctx context.Context, fields Fields) {
	s.mu.Lock()
	s.fields = fields
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(ctx, snap)
}

// BuildRequest converts the current fields into a completion request.
func (s *SessionService) BuildRequest() (*CompletionRequest, error) {
	s.mu.Lock()
	fields := s.fields
	s.mu.Unlock()

	return fields.BuildRequest()
}

// Submit requests a completion for the current fields and saves the result.
// A second Submit while one is outstanding fails with ErrRequestInFlight. If
// the session is reset or reloaded before the completion arrives, the result
// is discarded and ErrSuperseded is returned.
func (s *SessionService) Submit(ctx context.Context) (*CompletionResult, error) {
	ctx = observability.WithSessionID(ctx, s.id)
	logger := observability.FromContext(ctx)

	s.mu.Lock()
	if s.state == StateRequesting {
		s.mu.Unlock()
		return nil, ErrRequestInFlight
	}

	// Stale evaluation must never be attributed to the new completion.
	s.pending = nil
	s.editable = false
	s.output = ""
	s.staged = false
	s.eval = Evaluation{}
	s.message = ""

	req, err := s.fields.BuildRequest()
	if err != nil {
		s.state = StateFailed
		s.message = err.Error()
		snap := s.snapshotLocked()
		s.mu.Unlock()

		logger.Warn("rejected invalid request", observability.Error(err))
		s.notify(ctx, snap)
		return nil, err
	}

	s.state = StateRequesting
	s.generation++
	generation := s.generation
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(ctx, snap)

	ctx = observability.WithModel(ctx, req.Model)
	logger = observability.FromContext(ctx)
	logger.Info("requesting completion",
		observability.Float64("temperature", req.Temperature),
		observability.Int("max_tokens", req.MaxTokens),
		observability.Int("stop_words", len(req.Stop)))

	result, err := s.complete(ctx, req)

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		logger.Info("discarding superseded completion")
		return nil, ErrSuperseded
	}

	if err != nil {
		s.state = StateFailed
		s.message = fmt.Sprintf("completion failed: %v", err)
		snap = s.snapshotLocked()
		s.mu.Unlock()

		logger.Error("completion failed", observability.Error(err))
		s.notify(ctx, snap)
		return nil, err
	}

	s.state = StateCompleted
	s.pending = result
	s.output = result.Completion
	s.staged = true
	s.eval = Evaluation{Enabled: true}
	saveErr := s.saveLocked(ctx)
	snap = s.snapshotLocked()
	s.mu.Unlock()

	logger.Info("completion received",
		observability.String("result_id", result.ID),
		observability.Int("completion_length", len(result.Completion)),
		observability.Bool("saved", saveErr == nil))
	s.notify(ctx, snap)
	return result, nil
}

// complete calls the client under the session's request timeout.
func (s *SessionService) complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.client.Complete(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timed out after %s: %w", s.timeout, err)
		}
		return nil, err
	}
	if result == nil {
		return nil, errors.New("completion client returned no result")
	}

	return result, nil
}

// Save upserts the pending result combined with the current prompt and
// evaluation. It is a no-op without a pending result. A store failure is
// reported in the snapshot message and returned; the session stays usable.
func (s *SessionService) Save(ctx context.Context) error {
	ctx = observability.WithSessionID(ctx, s.id)

	s.mu.Lock()
	err := s.saveLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(ctx, snap)
	return err
}

func (s *SessionService) saveLocked(ctx context.Context) error {
	if s.pending == nil {
		return nil
	}

	var star *bool
	if !s.eval.unstarred {
		starred := s.eval.Star
		star = &starred
	}

	record := Record{
		ID:          s.pending.ID,
		Prompt:      UnescapeNewlines(s.fields.Prompt),
		Completion:  s.pending.Completion,
		Rating:      copyRating(s.eval.Rating),
		Star:        star,
		RawRequest:  s.pending.RawRequest,
		RawResponse: s.pending.RawResponse,
	}

	if err := s.store.Upsert(ctx, record); err != nil {
		s.message = fmt.Sprintf("failed to save completion: %v", err)
		observability.FromContext(ctx).Error("failed to save completion",
			observability.String("record_id", record.ID),
			observability.Error(err))
		return fmt.Errorf("failed to save completion: %w", err)
	}

	return nil
}

// Load restores a prior record into the fields. When editable, the record
// becomes the pending result so later saves overwrite it by id; otherwise the
// session starts a fresh prompt from the record's parameters.
// An outstanding request is superseded.
func (s *SessionService) Load(ctx context.Context, record Record, editable bool) {
	ctx = observability.WithSessionID(ctx, s.id)

	s.mu.Lock()
	s.generation++
	s.state = StateLoaded
	s.editable = editable
	s.fields = FieldsFromRecord(record)
	s.staged = false
	s.message = ""

	if editable {
		s.pending = &CompletionResult{
			ID:          record.ID,
			Completion:  record.Completion,
			RawRequest:  record.RawRequest,
			RawResponse: record.RawResponse,
		}
		s.output = record.Completion
		s.eval = Evaluation{
			Rating:  copyRating(record.Rating),
			Star:      record.Starred(),
			Enabled:   true,
			unstarred: record.Star == nil,
		}
	} else {
		s.pending = nil
		s.output = ""
		s.eval = Evaluation{}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	observability.FromContext(ctx).Info("loaded record",
		observability.String("record_id", record.ID),
		observability.Bool("editable", editable))
	s.notify(ctx, snap)
}

// ToggleRating selects the rating, or clears it when already selected, then saves.
func (s *SessionService) ToggleRating(ctx context.Context, rating Rating) error {
	return s.evaluate(ctx, func(e *Evaluation) {
		if e.Rating != nil && *e.Rating == rating {
			e.Rating = nil
			return
		}
		e.Rating = &rating
	})
}

// ToggleStar flips the star flag, then saves.
func (s *SessionService) ToggleStar(ctx context.Context) error {
	return s.evaluate(ctx, func(e *Evaluation) {
		e.Star = !e.Star
	})
}

// SetEvaluation replaces the rating and star flag, then saves.
func (s *SessionService) SetEvaluation(ctx context.Context, rating *Rating, star bool) error {
	return s.evaluate(ctx, func(e *Evaluation) {
		e.Rating = copyRating(rating)
		e.Star = star
	})
}

// evaluate applies an evaluation change and persists it. Save failures are
// reported through the snapshot message only.
func (s *SessionService) evaluate(ctx context.Context, change func(*Evaluation)) error {
	ctx = observability.WithSessionID(ctx, s.id)

	s.mu.Lock()
	if !s.eval.Enabled {
		s.mu.Unlock()
		return ErrEvaluationDisabled
	}

	change(&s.eval)
	s.eval.unstarred = false
	s.message = ""
	_ = s.saveLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(ctx, snap)
	return nil
}

func (s *SessionService) resetLocked() {
	s.state = StateIdle
	s.editable = false
	s.fields = DefaultFields(s.defaults)
	s.pending = nil
	s.output = ""
	s.staged = false
	s.eval = Evaluation{}
	s.message = ""
}

func (s *SessionService) snapshotLocked() Snapshot {
	var pending *CompletionResult
	if s.pending != nil {
		p := *s.pending
		pending = &p
	}

	eval := s.eval
	eval.Rating = copyRating(s.eval.Rating)

	return Snapshot{
		ID:         s.id,
		State:      s.state,
		Editable:   s.editable,
		Fields:     s.fields,
		Pending:    pending,
		Output:     s.output,
		Staged:     s.staged,
		InProgress: s.state == StateRequesting,
		Evaluation: eval,
		Message:    s.message,
	}
}

func (s *SessionService) notify(ctx context.Context, snap Snapshot) {
	if s.publisher == nil {
		return
	}

	s.publisher.Publish(ctx, EventStateChanged, map[string]interface{}{
		"session_id": snap.ID,
		"state":      string(snap.State),
		"snapshot":   snap,
	})
}

func copyRating(r *Rating) *Rating {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
