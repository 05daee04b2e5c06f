package dto

import "learnquest/internal/domain"

// PublicQuestionResponse is a question without correctness flags or explanation.
type PublicQuestionResponse struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Points     int      `json:"points"`
	Difficulty string   `json:"difficulty,omitempty"`
}

// PublicQuizResponse represents a quiz as shown to a student
// @Description Quiz definition with the answer key removed
type PublicQuizResponse struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	Description       string                   `json:"description,omitempty"`
	CourseID          string                   `json:"courseId,omitempty"`
	Subject           string                   `json:"subject,omitempty"`
	Level             string                   `json:"level,omitempty"`
	QuestionTimeLimit int                      `json:"questionTimeLimit"` // seconds
	PassingScore      int                      `json:"passingScore"`
	XPReward          int                      `json:"xpReward"`
	TotalQuestions    int                      `json:"totalQuestions"`
	Questions         []PublicQuestionResponse `json:"questions"`
}

// AnswerRequest is one selected option. selectedOption -1 means no answer.
type AnswerRequest struct {
	QuestionID     string `json:"questionId" validate:"max=64"`
	SelectedOption int    `json:"selectedOption"`
}

// SubmitQuizRequest represents a completed attempt
// @Description Request body for submitting quiz answers
type SubmitQuizRequest struct {
	SubmissionID string          `json:"submissionId,omitempty" validate:"omitempty,max=64"`
	Answers      []AnswerRequest `json:"answers" validate:"max=500,dive"`
	TimeSpent    int             `json:"timeSpent" validate:"min=0"`
}

// QuizResultResponse is the graded attempt
// @Description Per-question results and ledger outcome
type QuizResultResponse struct {
	QuizID       string                  `json:"quizId"`
	SubmissionID string                  `json:"submissionId,omitempty"`
	Results      []domain.QuestionResult `json:"results"`
	Score        int                     `json:"score"`
	Total        int                     `json:"total"`
	Answered     int                     `json:"answered"`
	Percentage   int                     `json:"percentage"`
	Passed       bool                    `json:"passed"`
	XPEarned     int                     `json:"xpEarned"`
	Recorded     bool                    `json:"recorded"`
	Duplicate    bool                    `json:"duplicate,omitempty"`
}

// ToPublicQuiz strips the answer key from a quiz.
func ToPublicQuiz(q *domain.Quiz) *PublicQuizResponse {
	resp := &PublicQuizResponse{
		ID:                q.ID,
		Title:             q.Title,
		Description:       q.Description,
		CourseID:          q.CourseID,
		Subject:           q.Subject,
		Level:             q.Level,
		QuestionTimeLimit: int(q.TimeLimit().Seconds()),
		PassingScore:      q.PassingScore,
		XPReward:          q.XPReward,
		TotalQuestions:    len(q.Questions),
		Questions:         make([]PublicQuestionResponse, 0, len(q.Questions)),
	}
	for i := range q.Questions {
		resp.Questions = append(resp.Questions, ToPublicQuestion(&q.Questions[i]))
	}
	return resp
}

func ToPublicQuestion(q *domain.Question) PublicQuestionResponse {
	options := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		options = append(options, o.Text)
	}
	return PublicQuestionResponse{
		ID:         q.ID,
		Text:       q.Text,
		Options:    options,
		Points:     q.PointValue(),
		Difficulty: q.Difficulty,
	}
}

// ToDomainAnswers converts request answers for scoring.
func ToDomainAnswers(in []AnswerRequest) []domain.Answer {
	out := make([]domain.Answer, 0, len(in))
	for _, a := range in {
		out = append(out, domain.Answer{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption})
	}
	return out
}

// NewQuizResultResponse copies a scored result into the response shape.
// NewReplayedResultResponse rebuilds a duplicate submission's response from
// its ledger row. Per-question detail is not stored.
func NewReplayedResultResponse(s *domain.QuizSubmission) *QuizResultResponse {
	return &QuizResultResponse{
		QuizID:       s.QuizID,
		SubmissionID: s.ID,
		Results:      []domain.QuestionResult{},
		Score:        s.Score,
		Total:        s.Total,
		Answered:     s.Answered,
		Percentage:   s.Percentage,
		Passed:       s.Passed,
		XPEarned:     s.XPEarned,
		Duplicate:    true,
	}
}

func NewQuizResultResponse(r *domain.Result) *QuizResultResponse {
	results := r.Questions
	if results == nil {
		results = []domain.QuestionResult{}
	}
	return &QuizResultResponse{
		QuizID:     r.QuizID,
		Results:    results,
		Score:      r.Score,
		Total:      r.Total,
		Answered:   r.Answered,
		Percentage: r.Percentage,
		Passed:     r.Passed,
		XPEarned:   r.XPEarned,
	}
}
