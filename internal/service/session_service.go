package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/logger"
	"learnquest/internal/session"
)

// SessionService runs timed quiz attempts on the server. Completing the last
// question submits the collected answers through QuizService, using the
// session id as the submission id.
type SessionService interface {
	Start(ctx context.Context, userID, quizID string) (*dto.SessionResponse, error)
	Get(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	Answer(ctx context.Context, userID, sessionID string, option int) (*dto.SessionResponse, error)
	Next(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	Abandon(ctx context.Context, userID, sessionID string) error
}

type sessionService struct {
	manager *session.Manager
	quizzes QuizService
}

func NewSessionService(manager *session.Manager, quizzes QuizService) SessionService {
	return &sessionService{manager: manager, quizzes: quizzes}
}

func (s *sessionService) Start(ctx context.Context, userID, quizID string) (*dto.SessionResponse, error) {
	quiz, err := s.quizzes.GetAuthoritativeQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	sess, err := s.manager.Create(ctx, quiz, userID)
	if err != nil {
		return nil, err
	}
	logger.Get().Info("Quiz session started",
		zap.String("sessionID", sess.ID()),
		zap.String("quizID", quizID),
		zap.String("userID", userID))
	return toSessionResponse(sess), nil
}

// owned hides sessions of other users behind SessionNotFound.
func (s *sessionService) owned(ctx context.Context, userID, sessionID string) (*session.Session, error) {
	sess, err := s.manager.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID() != userID {
		return nil, domain.NewSessionNotFoundError(sessionID)
	}
	return sess, nil
}

func (s *sessionService) Get(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(sess), nil
}

func (s *sessionService) Answer(ctx context.Context, userID, sessionID string, option int) (*dto.SessionResponse, error) {
	sess, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Select(option); err != nil {
		return nil, err
	}
	return toSessionResponse(sess), nil
}

func (s *sessionService) Next(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	completed, err := sess.Advance()
	if err != nil {
		return nil, err
	}
	if completed {
		if sess.Outcome() == nil {
			result, err := s.quizzes.SubmitQuiz(ctx, sess.UserID(), sess.QuizID(), &dto.SubmitQuizRequest{
				SubmissionID: sess.ID(),
				Answers:      toAnswerRequests(sess.Answers()),
				TimeSpent:    int(sess.Elapsed().Seconds()),
			})
			if err != nil {
				return nil, err
			}
			sess.SetOutcome(toSessionOutcome(result))
			logger.Get().Info("Quiz session completed",
				zap.String("sessionID", sess.ID()),
				zap.Int("score", result.Score),
				zap.Int("total", result.Total))
		}
	}
	return toSessionResponse(sess), nil
}

func (s *sessionService) Abandon(ctx context.Context, userID, sessionID string) error {
	if _, err := s.owned(ctx, userID, sessionID); err != nil {
		return err
	}
	s.manager.Remove(ctx, sessionID)
	return nil
}

func toAnswerRequests(answers []domain.Answer) []dto.AnswerRequest {
	out := make([]dto.AnswerRequest, 0, len(answers))
	for _, a := range answers {
		out = append(out, dto.AnswerRequest{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption})
	}
	return out
}

func toSessionResponse(sess *session.Session) *dto.SessionResponse {
	v := sess.Snapshot()
	resp := &dto.SessionResponse{
		ID:               v.ID,
		QuizID:           v.QuizID,
		State:            v.State.String(),
		QuestionIndex:    v.Index,
		TotalQuestions:   v.Total,
		RemainingSeconds: int(math.Ceil(v.Remaining.Seconds())),
		SelectedOption:   v.SelectedOption,
		CorrectOption:    v.CorrectOption,
		IsCorrect:        v.IsCorrect,
		Explanation:      v.Explanation,
		TimedOut:         v.TimedOut,
	}
	if v.Question != nil {
		q := dto.ToPublicQuestion(v.Question)
		resp.Question = &q
	}
	if o := sess.Outcome(); o != nil {
		resp.Result = fromSessionOutcome(o)
	}
	return resp
}

func toSessionOutcome(r *dto.QuizResultResponse) *session.Outcome {
	return &session.Outcome{
		SubmissionID: r.SubmissionID,
		Recorded:     r.Recorded,
		Duplicate:    r.Duplicate,
		Result: &domain.Result{
			QuizID:     r.QuizID,
			Questions:  r.Results,
			Score:      r.Score,
			Total:      r.Total,
			Answered:   r.Answered,
			Percentage: r.Percentage,
			Passed:     r.Passed,
			XPEarned:   r.XPEarned,
		},
	}
}

func fromSessionOutcome(o *session.Outcome) *dto.QuizResultResponse {
	resp := dto.NewQuizResultResponse(o.Result)
	resp.SubmissionID = o.SubmissionID
	resp.Recorded = o.Recorded
	resp.Duplicate = o.Duplicate
	return resp
}
