package dto

// SessionResponse is a snapshot of a server-run quiz attempt.
// @Description Timed quiz session state
type SessionResponse struct {
	ID               string                  `json:"id"`
	QuizID           string                  `json:"quizId"`
	State            string                  `json:"state"`
	QuestionIndex    int                     `json:"questionIndex"`
	TotalQuestions   int                     `json:"totalQuestions"`
	Question         *PublicQuestionResponse `json:"question,omitempty"`
	RemainingSeconds int                     `json:"remainingSeconds"`
	SelectedOption   *int                    `json:"selectedOption,omitempty"`
	CorrectOption    *int                    `json:"correctOption,omitempty"`
	IsCorrect        *bool                   `json:"isCorrect,omitempty"`
	Explanation      string                  `json:"explanation,omitempty"`
	TimedOut         bool                    `json:"timedOut,omitempty"`
	Result           *QuizResultResponse     `json:"result,omitempty"`
}

// SessionAnswerRequest selects an option for the current question.
type SessionAnswerRequest struct {
	SelectedOption *int `json:"selectedOption" validate:"required,min=0"`
}
