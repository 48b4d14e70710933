package schemas

import "time"

type QuestionType string

const (
	QuestionTypeOpen           QuestionType = "open"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeOpen, QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		return true
	}
	return false
}

const DefaultQuestionPoints = 1

// QuestionCreate leaves QuizID to the route layer, which takes it from the
// path. Type defaults to open and Points to DefaultQuestionPoints.
type QuestionCreate struct {
	Content string       `json:"content" binding:"required,max=256"`
	Type    QuestionType `json:"type" binding:"omitempty,questiontype"`
	Points  *int         `json:"points"`
	QuizID  *uint        `json:"quiz_id"`
}

type QuestionUpdate struct {
	Content *string       `json:"content" binding:"omitempty,min=1,max=256"`
	Type    *QuestionType `json:"type" binding:"omitempty,questiontype"`
	Points  *int          `json:"points"`
}

func (u QuestionUpdate) Changes() map[string]any {
	changes := map[string]any{}
	if u.Content != nil {
		changes["content"] = *u.Content
	}
	if u.Type != nil {
		changes["type"] = string(*u.Type)
	}
	if u.Points != nil {
		changes["points"] = *u.Points
	}
	return changes
}

type QuestionReturn struct {
	ID        uint         `json:"id"`
	QuizID    uint         `json:"quiz_id"`
	Content   string       `json:"content"`
	Type      QuestionType `json:"type"`
	Points    int          `json:"points"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type QuestionWithOptions struct {
	QuestionReturn
	AnswerOptions []AnswerOptionReturn `json:"answer_options"`
}
