package models

import (
	"context"
	"errors"
	"time"

	"studentquiz/schemas"

	"gorm.io/gorm"
)

type Quiz struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:128;not null;index"`
	Description *string   `json:"description" gorm:"size:512"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   uint      `json:"created_by" gorm:"not null;index"`

	// Relationships
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (Quiz) TableName() string { return "quizzes" }

func (q Quiz) Identity() uint { return q.ID }

func (q *Quiz) ToReturn() schemas.QuizReturn {
	return schemas.QuizReturn{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		CreatedBy:   q.CreatedBy,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// ToReturnWithQuestions expects Questions to have been loaded, see
// GetQuizWithQuestions.
func (q *Quiz) ToReturnWithQuestions() schemas.QuizWithQuestions {
	questions := make([]schemas.QuestionReturn, 0, len(q.Questions))
	for i := range q.Questions {
		questions = append(questions, q.Questions[i].ToReturn())
	}
	return schemas.QuizWithQuestions{QuizReturn: q.ToReturn(), Questions: questions}
}

// CreateQuiz inserts a quiz. in.CreatedBy must be set, usually by the route
// layer from the authenticated user.
func CreateQuiz(ctx context.Context, db *gorm.DB, in schemas.QuizCreate) (*Quiz, error) {
	if in.CreatedBy == nil {
		return nil, errors.New("quiz owner is required")
	}

	quiz := Quiz{
		Title:       in.Title,
		Description: in.Description,
		CreatedBy:   *in.CreatedBy,
		UpdatedAt:   time.Now(),
	}
	return create(ctx, db, &quiz)
}

// ListQuizzes returns a window of quizzes, most recently created first.
func ListQuizzes(ctx context.Context, db *gorm.DB, offset, limit int) ([]Quiz, error) {
	quizzes := []Quiz{}
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&quizzes).Error
	return quizzes, err
}

func GetQuizWithQuestions(ctx context.Context, db *gorm.DB, id uint) (*Quiz, error) {
	var quiz Quiz
	err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id")
		}).
		First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetQuizCreatedBy returns only the owner of a quiz. found is false when the
// quiz does not exist.
func GetQuizCreatedBy(ctx context.Context, db *gorm.DB, id uint) (owner uint, found bool, err error) {
	var owners []uint
	err = db.WithContext(ctx).
		Model(&Quiz{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("created_by", &owners).Error
	if err != nil || len(owners) == 0 {
		return 0, false, err
	}
	return owners[0], true, nil
}
