package models

import (
	"context"
	"errors"

	"studentquiz/schemas"

	"gorm.io/gorm"
)

type AnswerOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Content    string `json:"content" gorm:"not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
}

func (AnswerOption) TableName() string { return "answer_options" }

func (o AnswerOption) Identity() uint { return o.ID }

func (o *AnswerOption) ToReturn() schemas.AnswerOptionReturn {
	return schemas.AnswerOptionReturn{
		ID:         o.ID,
		QuestionID: o.QuestionID,
		Content:    o.Content,
		IsCorrect:  o.IsCorrect,
	}
}

func CreateAnswerOption(ctx context.Context, db *gorm.DB, in schemas.AnswerOptionCreate) (*AnswerOption, error) {
	if in.QuestionID == nil {
		return nil, errors.New("answer option question is required")
	}

	option := AnswerOption{
		QuestionID: *in.QuestionID,
		Content:    in.Content,
		IsCorrect:  in.IsCorrect,
	}
	return create(ctx, db, &option)
}

func GetAnswerOptionsByQuestionID(ctx context.Context, db *gorm.DB, questionID uint) ([]AnswerOption, error) {
	options := []AnswerOption{}
	err := db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id").
		Find(&options).Error
	return options, err
}
