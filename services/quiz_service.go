package services

import (
	"context"
	"errors"

	"studentquiz/models"
	"studentquiz/schemas"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("not the owner of this quiz")
)

// Event types published on the quiz change feed.
const (
	EventQuizUpdated     = "quiz_updated"
	EventQuizDeleted     = "quiz_deleted"
	EventQuestionCreated = "question_created"
	EventQuestionUpdated = "question_updated"
	EventQuestionDeleted = "question_deleted"
	EventOptionCreated   = "option_created"
	EventOptionUpdated   = "option_updated"
	EventOptionDeleted   = "option_deleted"
)

// Notifier receives an event after every committed change to a quiz.
type Notifier interface {
	Publish(quizID uint, eventType string, payload interface{})
}

type QuizService struct {
	db       Scoper
	notifier Notifier
}

func NewQuizService(db Scoper, notifier Notifier) *QuizService {
	return &QuizService{db: db, notifier: notifier}
}

func (s *QuizService) ListQuizzes(ctx context.Context, offset, limit int) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		var err error
		quizzes, err = models.ListQuizzes(ctx, tx, offset, limit)
		return err
	})
	return quizzes, err
}

func (s *QuizService) CreateQuiz(ctx context.Context, userID uint, in schemas.QuizCreate) (*models.Quiz, error) {
	in.CreatedBy = &userID

	var quiz *models.Quiz
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		var err error
		quiz, err = models.CreateQuiz(ctx, tx, in)
		return err
	})
	return quiz, err
}

// GetQuiz returns the quiz with its questions loaded.
func (s *QuizService) GetQuiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	var quiz *models.Quiz
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		var err error
		quiz, err = models.GetQuizWithQuestions(ctx, tx, quizID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrNotFound
	}
	return quiz, nil
}

func (s *QuizService) UpdateQuiz(ctx context.Context, userID, quizID uint, in schemas.QuizUpdate) (*models.Quiz, error) {
	var quiz *models.Quiz
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		if err := requireOwner(ctx, tx, quizID, userID); err != nil {
			return err
		}
		current, err := models.Get[models.Quiz](ctx, tx, quizID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}
		quiz, err = models.Update(ctx, tx, current, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(quiz.ID, EventQuizUpdated, quiz.ToReturn())
	return quiz, nil
}

// DeleteQuiz removes the quiz together with its questions and their answer
// options.
func (s *QuizService) DeleteQuiz(ctx context.Context, userID, quizID uint) (*models.Quiz, error) {
	var quiz *models.Quiz
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		if err := requireOwner(ctx, tx, quizID, userID); err != nil {
			return err
		}
		var err error
		quiz, err = models.DeleteByID[models.Quiz](ctx, tx, quizID)
		if err == nil && quiz == nil {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(quiz.ID, EventQuizDeleted, quiz.ToReturn())
	return quiz, nil
}

// QuizOwner returns the id of the user who created the quiz without loading
// the quiz itself.
func (s *QuizService) QuizOwner(ctx context.Context, quizID uint) (uint, error) {
	var owner uint
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		var err error
		owner, err = quizOwner(ctx, tx, quizID)
		return err
	})
	return owner, err
}

func (s *QuizService) ListQuestions(ctx context.Context, quizID uint) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		if _, err := quizOwner(ctx, tx, quizID); err != nil {
			return err
		}
		var err error
		questions, err = models.GetQuestionsByQuizID(ctx, tx, quizID)
		return err
	})
	return questions, err
}

func (s *QuizService) CreateQuestion(ctx context.Context, userID, quizID uint, in schemas.QuestionCreate) (*models.Question, error) {
	in.QuizID = &quizID

	var question *models.Question
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		if err := requireOwner(ctx, tx, quizID, userID); err != nil {
			return err
		}
		var err error
		question, err = models.CreateQuestion(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(quizID, EventQuestionCreated, question.ToReturn())
	return question, nil
}

// GetQuestion returns the question with its answer options loaded.
func (s *QuizService) GetQuestion(ctx context.Context, questionID uint) (*models.Question, error) {
	var question *models.Question
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		var err error
		question, err = models.GetQuestionWithAnswers(ctx, tx, questionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, ErrNotFound
	}
	return question, nil
}

func (s *QuizService) UpdateQuestion(ctx context.Context, userID, questionID uint, in schemas.QuestionUpdate) (*models.Question, error) {
	var question *models.Question
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		current, err := ownedQuestion(ctx, tx, questionID, userID)
		if err != nil {
			return err
		}
		question, err = models.Update(ctx, tx, current, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(question.QuizID, EventQuestionUpdated, question.ToReturn())
	return question, nil
}

// DeleteQuestion removes the question and its answer options.
func (s *QuizService) DeleteQuestion(ctx context.Context, userID, questionID uint) (*models.Question, error) {
	var question *models.Question
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		current, err := ownedQuestion(ctx, tx, questionID, userID)
		if err != nil {
			return err
		}
		question, err = models.Delete(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(question.QuizID, EventQuestionDeleted, question.ToReturn())
	return question, nil
}

func (s *QuizService) CreateAnswerOption(ctx context.Context, userID, questionID uint, in schemas.AnswerOptionCreate) (*models.AnswerOption, error) {
	in.QuestionID = &questionID

	var (
		option *models.AnswerOption
		quizID uint
	)
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		question, err := ownedQuestion(ctx, tx, questionID, userID)
		if err != nil {
			return err
		}
		quizID = question.QuizID
		option, err = models.CreateAnswerOption(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(quizID, EventOptionCreated, option.ToReturn())
	return option, nil
}

func (s *QuizService) UpdateAnswerOption(ctx context.Context, userID, optionID uint, in schemas.AnswerOptionUpdate) (*models.AnswerOption, error) {
	var (
		option *models.AnswerOption
		quizID uint
	)
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		current, question, err := ownedOption(ctx, tx, optionID, userID)
		if err != nil {
			return err
		}
		quizID = question.QuizID
		option, err = models.Update(ctx, tx, current, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(quizID, EventOptionUpdated, option.ToReturn())
	return option, nil
}

func (s *QuizService) DeleteAnswerOption(ctx context.Context, userID, optionID uint) (*models.AnswerOption, error) {
	var (
		option *models.AnswerOption
		quizID uint
	)
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		current, question, err := ownedOption(ctx, tx, optionID, userID)
		if err != nil {
			return err
		}
		quizID = question.QuizID
		option, err = models.Delete(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(quizID, EventOptionDeleted, option.ToReturn())
	return option, nil
}

func quizOwner(ctx context.Context, tx *gorm.DB, quizID uint) (uint, error) {
	owner, found, err := models.GetQuizCreatedBy(ctx, tx, quizID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNotFound
	}
	return owner, nil
}

func requireOwner(ctx context.Context, tx *gorm.DB, quizID, userID uint) error {
	owner, err := quizOwner(ctx, tx, quizID)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

func ownedQuestion(ctx context.Context, tx *gorm.DB, questionID, userID uint) (*models.Question, error) {
	question, err := models.Get[models.Question](ctx, tx, questionID)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, ErrNotFound
	}
	if err := requireOwner(ctx, tx, question.QuizID, userID); err != nil {
		return nil, err
	}
	return question, nil
}

func ownedOption(ctx context.Context, tx *gorm.DB, optionID, userID uint) (*models.AnswerOption, *models.Question, error) {
	option, err := models.Get[models.AnswerOption](ctx, tx, optionID)
	if err != nil {
		return nil, nil, err
	}
	if option == nil {
		return nil, nil, ErrNotFound
	}
	question, err := ownedQuestion(ctx, tx, option.QuestionID, userID)
	if err != nil {
		return nil, nil, err
	}
	return option, question, nil
}
