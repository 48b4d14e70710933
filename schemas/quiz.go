package schemas

import "time"

// QuizCreate carries the fields of a new quiz. CreatedBy is normally filled
// in by the route layer from the authenticated user, not by the client.
type QuizCreate struct {
	Title       string  `json:"title" binding:"required,max=128"`
	Description *string `json:"description" binding:"omitempty,max=512"`
	CreatedBy   *uint   `json:"created_by"`
}

type QuizUpdate struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=128"`
	Description *string `json:"description" binding:"omitempty,max=512"`
}

func (u QuizUpdate) Changes() map[string]any {
	changes := map[string]any{}
	if u.Title != nil {
		changes["title"] = *u.Title
	}
	if u.Description != nil {
		changes["description"] = *u.Description
	}
	return changes
}

type QuizReturn struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedBy   uint      `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type QuizWithQuestions struct {
	QuizReturn
	Questions []QuestionReturn `json:"questions"`
}

// ListParams is the offset/limit window for quiz listings.
type ListParams struct {
	Offset int `form:"offset" binding:"min=0"`
	Limit  int `form:"limit" binding:"min=0,max=100"`
}

const DefaultListLimit = 25

func (p ListParams) Window() (offset, limit int) {
	limit = p.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	return p.Offset, limit
}
