package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnquest/internal/domain"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fire runs the i-th scheduled callback even if it was stopped, the way a
// runtime timer can fire just before Stop wins.
func (c *fakeClock) fire(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	t.f()
}

func testQuiz() *domain.Quiz {
	q := domain.NewQuiz("quiz-1", "Fractions", []domain.Question{
		{ID: "q1", Text: "1/2 + 1/2", Explanation: "Two halves make a whole.", Options: []domain.Option{{Text: "1", IsCorrect: true}, {Text: "2"}}},
		{ID: "q2", Text: "1/4 * 4", Options: []domain.Option{{Text: "4"}, {Text: "1", IsCorrect: true}}},
		{ID: "q3", Text: "3/3", Options: []domain.Option{{Text: "1", IsCorrect: true}, {Text: "0"}}},
	})
	q.QuestionTimeLimit = 20 * time.Second
	return q
}

func newTestSession(t *testing.T, clock *fakeClock) *Session {
	t.Helper()
	s, err := New("s-1", "u-1", testQuiz(), WithAfterFunc(clock.AfterFunc), WithClock(clock.Now))
	require.NoError(t, err)
	require.NoError(t, s.Start())
	return s
}

func TestNew_RejectsEmptyQuiz(t *testing.T) {
	_, err := New("s-1", "u-1", domain.NewQuiz("empty", "Empty", nil))
	assert.True(t, domain.HasCode(err, domain.CodeInvalidQuiz))
}

func TestStart_ShowsFirstQuestionWithoutAnswer(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock)

	v := s.Snapshot()
	assert.Equal(t, AwaitingAnswer, v.State)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, 3, v.Total)
	require.NotNil(t, v.Question)
	assert.Equal(t, "q1", v.Question.ID)
	assert.Equal(t, 20*time.Second, v.Remaining)
	assert.Nil(t, v.CorrectOption)
	assert.Empty(t, v.Explanation)

	require.Len(t, clock.timers, 1)
	assert.Equal(t, 20*time.Second, clock.timers[0].d)

	err := s.Start()
	assert.True(t, domain.HasCode(err, domain.CodeSessionState))
}

func TestSelect_LocksAndReveals(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock)

	clock.Advance(5 * time.Second)
	require.NoError(t, s.Select(0))

	v := s.Snapshot()
	assert.Equal(t, Locked, v.State)
	require.NotNil(t, v.SelectedOption)
	assert.Equal(t, 0, *v.SelectedOption)
	assert.Equal(t, 0, *v.CorrectOption)
	assert.True(t, *v.IsCorrect)
	assert.Equal(t, "Two halves make a whole.", v.Explanation)
	assert.False(t, v.TimedOut)
	assert.True(t, clock.timers[0].stopped)

	err := s.Select(1)
	assert.True(t, domain.HasCode(err, domain.CodeSessionState))
	assert.Equal(t, 0, s.Answers()[0].SelectedOption)
}

func TestSelect_RejectsNegativeOption(t *testing.T) {
	s := newTestSession(t, newFakeClock())
	err := s.Select(-1)
	var verrs domain.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
	assert.Equal(t, AwaitingAnswer, s.State())
}

func TestCountdown_LocksUnanswered(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock)

	clock.Advance(20 * time.Second)
	clock.fire(0)

	v := s.Snapshot()
	assert.Equal(t, Locked, v.State)
	assert.True(t, v.TimedOut)
	assert.False(t, *v.IsCorrect)
	assert.Equal(t, domain.NoAnswer, s.Answers()[0].SelectedOption)

	err := s.Select(0)
	assert.True(t, domain.HasCode(err, domain.CodeSessionState))
}

func TestCountdown_StaleFireIsIgnored(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock)

	require.NoError(t, s.Select(1))
	_, err := s.Advance()
	require.NoError(t, err)

	// The first question's timer fires late, after the session moved on.
	clock.fire(0)

	assert.Equal(t, AwaitingAnswer, s.State())
	assert.Equal(t, 1, s.Answers()[0].SelectedOption)
	assert.Equal(t, domain.NoAnswer, s.Answers()[1].SelectedOption)
}

func TestSelect_AfterDeadlineBeforeTimerFires(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock)

	clock.Advance(21 * time.Second)
	err := s.Select(0)
	assert.True(t, domain.HasCode(err, domain.CodeSessionState))

	v := s.Snapshot()
	assert.Equal(t, Locked, v.State)
	assert.True(t, v.TimedOut)
	assert.Equal(t, domain.NoAnswer, s.Answers()[0].SelectedOption)
}

func TestAdvance_WalksToCompletion(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock)

	_, err := s.Advance()
	assert.True(t, domain.HasCode(err, domain.CodeSessionState), "cannot advance before the question is locked")

	require.NoError(t, s.Select(0))
	done, err := s.Advance()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "q2", s.Snapshot().Question.ID)

	clock.Advance(20 * time.Second)
	clock.fire(1)
	done, err = s.Advance()
	require.NoError(t, err)
	assert.False(t, done)

	clock.Advance(3 * time.Second)
	require.NoError(t, s.Select(0))
	done, err = s.Advance()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, Completed, s.State())

	answers := s.Answers()
	assert.Equal(t, []int{0, domain.NoAnswer, 0}, []int{answers[0].SelectedOption, answers[1].SelectedOption, answers[2].SelectedOption})
	assert.Equal(t, 23*time.Second, s.Elapsed())

	res, err := domain.Score(testQuiz(), answers)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)

	assert.Nil(t, s.Outcome())
	s.SetOutcome(&Outcome{SubmissionID: s.ID(), Result: res, Recorded: true})
	require.NotNil(t, s.Outcome())
	assert.Equal(t, 2, s.Outcome().Result.Score)

	done, err = s.Advance()
	require.NoError(t, err)
	assert.True(t, done, "advancing a completed session is idempotent")
	assert.Nil(t, s.Snapshot().Question)
}

func TestAbandon_StopsCountdown(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock)

	s.Abandon()
	assert.Equal(t, Abandoned, s.State())
	assert.True(t, clock.timers[0].stopped)

	clock.fire(0)
	assert.Equal(t, Abandoned, s.State())
	assert.True(t, domain.HasCode(s.Select(0), domain.CodeSessionState))
}

func TestSelectRacesCountdown(t *testing.T) {
	for i := 0; i < 50; i++ {
		clock := newFakeClock()
		s := newTestSession(t, clock)

		var wg sync.WaitGroup
		var selectErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			selectErr = s.Select(0)
		}()
		go func() {
			defer wg.Done()
			clock.fire(0)
		}()
		wg.Wait()

		v := s.Snapshot()
		require.Equal(t, Locked, v.State)
		if selectErr == nil {
			assert.False(t, v.TimedOut)
			assert.Equal(t, 0, *v.SelectedOption)
		} else {
			assert.True(t, v.TimedOut)
			assert.Equal(t, domain.NoAnswer, *v.SelectedOption)
		}
	}
}
