package models

import (
	"context"
	"errors"
	"time"

	"studentquiz/schemas"

	"gorm.io/gorm"
)

type Question struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	QuizID    uint      `json:"quiz_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"size:256;not null"`
	Type      string    `json:"type" gorm:"size:64;not null"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	AnswerOptions []AnswerOption `json:"answer_options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string { return "questions" }

func (q Question) Identity() uint { return q.ID }

func (q *Question) ToReturn() schemas.QuestionReturn {
	return schemas.QuestionReturn{
		ID:        q.ID,
		QuizID:    q.QuizID,
		Content:   q.Content,
		Type:      schemas.QuestionType(q.Type),
		Points:    q.Points,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

func (q *Question) ToReturnWithOptions() schemas.QuestionWithOptions {
	options := make([]schemas.AnswerOptionReturn, 0, len(q.AnswerOptions))
	for i := range q.AnswerOptions {
		options = append(options, q.AnswerOptions[i].ToReturn())
	}
	return schemas.QuestionWithOptions{QuestionReturn: q.ToReturn(), AnswerOptions: options}
}

func CreateQuestion(ctx context.Context, db *gorm.DB, in schemas.QuestionCreate) (*Question, error) {
	if in.QuizID == nil {
		return nil, errors.New("question quiz is required")
	}

	questionType := in.Type
	if questionType == "" {
		questionType = schemas.QuestionTypeOpen
	}
	points := schemas.DefaultQuestionPoints
	if in.Points != nil {
		points = *in.Points
	}

	question := Question{
		QuizID:    *in.QuizID,
		Content:   in.Content,
		Type:      string(questionType),
		Points:    points,
		UpdatedAt: time.Now(),
	}
	return create(ctx, db, &question)
}

// GetQuestionsByQuizID returns the questions of a quiz in the order the
// database yields them.
func GetQuestionsByQuizID(ctx context.Context, db *gorm.DB, quizID uint) ([]Question, error) {
	questions := []Question{}
	err := db.WithContext(ctx).Where("quiz_id = ?", quizID).Find(&questions).Error
	return questions, err
}

func GetQuestionWithAnswers(ctx context.Context, db *gorm.DB, id uint) (*Question, error) {
	var question Question
	err := db.WithContext(ctx).
		Preload("AnswerOptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.id")
		}).
		First(&question, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}
