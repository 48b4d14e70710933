package schemas

type AnswerOptionCreate struct {
	Content    string `json:"content" binding:"required"`
	IsCorrect  bool   `json:"is_correct"`
	QuestionID *uint  `json:"question_id"`
}

type AnswerOptionUpdate struct {
	Content   *string `json:"content" binding:"omitempty,min=1"`
	IsCorrect *bool   `json:"is_correct"`
}

func (u AnswerOptionUpdate) Changes() map[string]any {
	changes := map[string]any{}
	if u.Content != nil {
		changes["content"] = *u.Content
	}
	if u.IsCorrect != nil {
		changes["is_correct"] = *u.IsCorrect
	}
	return changes
}

type AnswerOptionReturn struct {
	ID         uint   `json:"id"`
	QuestionID uint   `json:"question_id"`
	Content    string `json:"content"`
	IsCorrect  bool   `json:"is_correct"`
}
