// Package session runs timed, server-side quiz attempts. A Session walks the
// questions in order; each question gets its own countdown and is locked by
// the first answer or by expiry, whichever comes first.
package session

import (
	"sync"
	"time"

	"learnquest/internal/domain"
)

// State of a session.
type State int

const (
	NotStarted State = iota
	AwaitingAnswer
	Locked
	Completed
	Abandoned
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case AwaitingAnswer:
		return "awaiting_answer"
	case Locked:
		return "locked"
	case Completed:
		return "completed"
	case Abandoned:
		return "abandoned"
	}
	return "unknown"
}

// Timer is the part of *time.Timer a session needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// StdAfterFunc uses the runtime timer.
func StdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Session.
type Option func(*Session)

// WithAfterFunc replaces the countdown scheduler.
func WithAfterFunc(af AfterFunc) Option {
	return func(s *Session) { s.afterFunc = af }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithTimeLimit overrides the per-question allotment of the quiz.
func WithTimeLimit(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.limit = d
		}
	}
}

// WithOnTimeout registers a callback run after a countdown locks a question.
func WithOnTimeout(fn func(*Session)) Option {
	return func(s *Session) { s.onTimeout = fn }
}

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id     string
	userID string
	quiz   *domain.Quiz
	limit  time.Duration

	state      State
	index      int
	answers    []domain.Answer
	timedOut   bool
	deadline   time.Time
	timer      Timer
	generation uint64

	startedAt   time.Time
	completedAt time.Time
	outcome     *Outcome

	afterFunc AfterFunc
	now       func() time.Time
	onTimeout func(*Session)
}

// New prepares a session over an authoritative quiz. A quiz without
// questions is rejected.
func New(id, userID string, quiz *domain.Quiz, opts ...Option) (*Session, error) {
	if quiz == nil {
		return nil, domain.NewInvalidInputError("quiz is required")
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.NewInvalidQuizError(quiz.ID, "quiz has no questions")
	}
	s := &Session{
		id:        id,
		userID:    userID,
		quiz:      quiz,
		limit:     quiz.TimeLimit(),
		answers:   make([]domain.Answer, len(quiz.Questions)),
		afterFunc: StdAfterFunc,
		now:       time.Now,
	}
	for i, q := range quiz.Questions {
		s.answers[i] = domain.Answer{QuestionID: q.ID, SelectedOption: domain.NoAnswer}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }
func (s *Session) QuizID() string { return s.quiz.ID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start shows the first question and starts its countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != NotStarted {
		return domain.NewSessionStateError("session already started")
	}
	s.startedAt = s.now()
	s.enterQuestion(0)
	return nil
}

// enterQuestion must be called with mu held.
func (s *Session) enterQuestion(index int) {
	s.index = index
	s.state = AwaitingAnswer
	s.timedOut = false
	s.deadline = s.now().Add(s.limit)
	s.generation++
	gen := s.generation
	s.timer = s.afterFunc(s.limit, func() { s.expire(gen) })
}

// expire locks the question unanswered unless the countdown is stale.
func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.state != AwaitingAnswer {
		s.mu.Unlock()
		return
	}
	s.lock(domain.NoAnswer)
	s.timedOut = true
	cb := s.onTimeout
	s.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

// lock must be called with mu held. It invalidates the running countdown.
func (s *Session) lock(option int) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
	s.answers[s.index].SelectedOption = option
	s.state = Locked
}

// Select answers the current question. The answer is final. Selecting after
// the deadline locks the question unanswered and reports the conflict.
func (s *Session) Select(option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != AwaitingAnswer {
		return domain.NewSessionStateError("no question is awaiting an answer")
	}
	if option < 0 {
		return domain.ValidationErrors{{Field: "selectedOption", Message: "must not be negative", Value: option}}
	}
	if !s.now().Before(s.deadline) {
		s.lock(domain.NoAnswer)
		s.timedOut = true
		return domain.NewSessionStateError("time for this question is up")
	}
	s.lock(option)
	return nil
}

// Advance moves past a locked question. It reports true when the last
// question was passed and the session completed.
func (s *Session) Advance() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Completed:
		return true, nil
	case Locked:
	default:
		return false, domain.NewSessionStateError("current question is not locked yet")
	}
	if s.index+1 < len(s.quiz.Questions) {
		s.enterQuestion(s.index + 1)
		return false, nil
	}
	s.state = Completed
	s.completedAt = s.now()
	return true, nil
}

// Abandon stops the session. Nothing is submitted.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Completed || s.state == Abandoned {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
	s.state = Abandoned
}

// Answers returns the answers in question order; unanswered questions carry NoAnswer.
func (s *Session) Answers() []domain.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// Elapsed is the time from Start to completion, or to now while running.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	if !s.completedAt.IsZero() {
		return s.completedAt.Sub(s.startedAt)
	}
	return s.now().Sub(s.startedAt)
}

// Outcome is the graded result attached to a completed session.
type Outcome struct {
	SubmissionID string
	Result       *domain.Result
	Recorded     bool
	Duplicate    bool
}

// SetOutcome attaches the graded result once the session has been submitted.
func (s *Session) SetOutcome(o *Outcome) {
	s.mu.Lock()
	s.outcome = o
	s.mu.Unlock()
}

// Outcome is nil until the session has been submitted.
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// View is a point-in-time copy of the session for rendering.
type View struct {
	ID             string
	QuizID         string
	State          State
	Index          int
	Total          int
	Question       *domain.Question
	Remaining      time.Duration
	SelectedOption *int
	CorrectOption  *int
	IsCorrect      *bool
	Explanation    string
	TimedOut       bool
}

// Snapshot reveals the correct option and explanation only once the current
// question is locked.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:     s.id,
		QuizID: s.quiz.ID,
		State:  s.state,
		Index:  s.index,
		Total:  len(s.quiz.Questions),
	}
	if s.state != AwaitingAnswer && s.state != Locked {
		return v
	}
	q := s.quiz.Questions[s.index]
	q.Options = append([]domain.Option(nil), q.Options...)
	v.Question = &q

	if s.state == AwaitingAnswer {
		if rem := s.deadline.Sub(s.now()); rem > 0 {
			v.Remaining = rem
		}
		return v
	}

	selected := s.answers[s.index].SelectedOption
	correct := q.CorrectOption()
	isCorrect := q.IsCorrectChoice(selected)
	v.SelectedOption = &selected
	v.CorrectOption = &correct
	v.IsCorrect = &isCorrect
	v.Explanation = q.Explanation
	v.TimedOut = s.timedOut
	return v
}
