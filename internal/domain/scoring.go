package domain

// Score grades answers against the authoritative quiz definition.
//
// Answers are joined to questions by question ID; the first answer for a
// question wins and answers for unknown questions are ignored. A question
// without an answer counts as unanswered. The only failure is a quiz with no
// questions, which has no defined percentage.
func Score(quiz *Quiz, answers []Answer) (*Result, error) {
	if quiz == nil {
		return nil, NewInvalidInputError("quiz is required")
	}
	total := len(quiz.Questions)
	if total == 0 {
		return nil, NewInvalidQuizError(quiz.ID, "quiz has no questions")
	}

	selected := make(map[string]int, len(answers))
	for _, a := range answers {
		if _, dup := selected[a.QuestionID]; dup {
			continue
		}
		selected[a.QuestionID] = a.SelectedOption
	}

	result := &Result{
		QuizID:    quiz.ID,
		Questions: make([]QuestionResult, 0, total),
		Total:     total,
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		choice, ok := selected[q.ID]
		if !ok || choice < 0 {
			choice = NoAnswer
		}
		correct := q.IsCorrectChoice(choice)
		points := q.PointValue()

		result.TotalPoints += points
		if choice != NoAnswer {
			result.Answered++
		}
		if correct {
			result.Score++
			result.EarnedPoints += points
		}
		result.Questions = append(result.Questions, QuestionResult{
			QuestionID:     q.ID,
			Question:       q.Text,
			SelectedOption: choice,
			CorrectOption:  q.CorrectOption(),
			IsCorrect:      correct,
			Explanation:    q.Explanation,
			Points:         points,
		})
	}

	result.Percentage = Percentage(result.Score, total)
	result.Passed = result.Percentage >= quiz.PassingScore
	result.XPEarned = QuizXP(quiz.XPReward, result.Passed)
	return result, nil
}

// Percentage returns part/whole*100 rounded half up. A non-positive whole yields 0.
func Percentage(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}

// QuizXP is the full reward for a pass and floor(30%) of it otherwise.
func QuizXP(xpReward int, passed bool) int {
	if xpReward <= 0 {
		return 0
	}
	if passed {
		return xpReward
	}
	return xpReward * 3 / 10
}
