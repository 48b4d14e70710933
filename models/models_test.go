package models

import (
	"context"
	"testing"
	"time"

	"studentquiz/schemas"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func ptr[T any](v T) *T { return &v }

func seedUser(t *testing.T, db *gorm.DB, name string) *User {
	t.Helper()
	user, err := CreateUser(context.Background(), db, schemas.UserCreate{
		Username: name,
		Email:    name + "@x.com",
		Password: "pw",
	}, plainHasher{})
	require.NoError(t, err)
	return user
}

func seedQuiz(t *testing.T, db *gorm.DB, owner uint, title string) *Quiz {
	t.Helper()
	quiz, err := CreateQuiz(context.Background(), db, schemas.QuizCreate{Title: title, CreatedBy: &owner})
	require.NoError(t, err)
	return quiz
}

func seedQuestion(t *testing.T, db *gorm.DB, quizID uint, content string) *Question {
	t.Helper()
	question, err := CreateQuestion(context.Background(), db, schemas.QuestionCreate{Content: content, QuizID: &quizID})
	require.NoError(t, err)
	return question
}

func seedOption(t *testing.T, db *gorm.DB, questionID uint, content string) *AnswerOption {
	t.Helper()
	option, err := CreateAnswerOption(context.Background(), db, schemas.AnswerOptionCreate{Content: content, QuestionID: &questionID})
	require.NoError(t, err)
	return option
}

func TestScenarioQuizWithQuestionsAndAnswers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	assert.Equal(t, "hashed:pw", alice.PasswordHash)

	quiz := seedQuiz(t, db, alice.ID, "T1")
	question, err := CreateQuestion(ctx, db, schemas.QuestionCreate{
		Content: "Q1",
		Type:    schemas.QuestionTypeOpen,
		Points:  ptr(1),
		QuizID:  &quiz.ID,
	})
	require.NoError(t, err)
	seedOption(t, db, question.ID, "A1")

	withQuestions, err := GetQuizWithQuestions(ctx, db, quiz.ID)
	require.NoError(t, err)
	require.NotNil(t, withQuestions)
	require.Len(t, withQuestions.Questions, 1)
	assert.Equal(t, "Q1", withQuestions.Questions[0].Content)

	withAnswers, err := GetQuestionWithAnswers(ctx, db, question.ID)
	require.NoError(t, err)
	require.NotNil(t, withAnswers)
	require.Len(t, withAnswers.AnswerOptions, 1)
	assert.Equal(t, "A1", withAnswers.AnswerOptions[0].Content)
	assert.False(t, withAnswers.AnswerOptions[0].IsCorrect)

	owner, found, err := GetQuizCreatedBy(ctx, db, quiz.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, alice.ID, owner)
}

func TestGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	quiz := seedQuiz(t, db, alice.ID, "T1")
	question := seedQuestion(t, db, quiz.ID, "Q1")
	option := seedOption(t, db, question.ID, "A1")

	gotUser, err := Get[User](ctx, db, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Username, gotUser.Username)
	assert.Equal(t, alice.Email, gotUser.Email)
	assert.Equal(t, alice.PasswordHash, gotUser.PasswordHash)
	assert.True(t, alice.CreatedAt.Equal(gotUser.CreatedAt))

	gotQuiz, err := Get[Quiz](ctx, db, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.ToReturn().Title, gotQuiz.Title)
	assert.Equal(t, alice.ID, gotQuiz.CreatedBy)
	assert.Nil(t, gotQuiz.Description)
	assert.True(t, quiz.UpdatedAt.Equal(gotQuiz.UpdatedAt))

	gotQuestion, err := Get[Question](ctx, db, question.ID)
	require.NoError(t, err)
	assert.Equal(t, string(schemas.QuestionTypeOpen), gotQuestion.Type)
	assert.Equal(t, schemas.DefaultQuestionPoints, gotQuestion.Points)
	assert.Equal(t, quiz.ID, gotQuestion.QuizID)

	gotOption, err := Get[AnswerOption](ctx, db, option.ID)
	require.NoError(t, err)
	assert.Equal(t, *option, *gotOption)
}

func TestGetMissingReturnsNil(t *testing.T) {
	db := newTestDB(t)

	quiz, err := Get[Quiz](context.Background(), db, 42)
	assert.NoError(t, err)
	assert.Nil(t, quiz)

	user, err := GetUserByUsername(context.Background(), db, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = GetUserByEmail(context.Background(), db, "nobody@x.com")
	assert.NoError(t, err)
	assert.Nil(t, user)

	_, found, err := GetQuizCreatedBy(context.Background(), db, 42)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateEmptyPatchOnlyTouchesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	quiz := seedQuiz(t, db, alice.ID, "T1")
	before := *quiz

	time.Sleep(5 * time.Millisecond)
	updated, err := Update(ctx, db, quiz, schemas.QuizUpdate{})
	require.NoError(t, err)

	assert.Equal(t, before.Title, updated.Title)
	assert.Equal(t, before.Description, updated.Description)
	assert.Equal(t, before.CreatedBy, updated.CreatedBy)
	assert.True(t, before.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(before.UpdatedAt))

	user, err := Update(ctx, db, alice, Patch{})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestUpdateWritesOnlySetFields(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	quiz := seedQuiz(t, db, alice.ID, "T1")
	question, err := CreateQuestion(ctx, db, schemas.QuestionCreate{
		Content: "Q1",
		Type:    schemas.QuestionTypeTrueFalse,
		Points:  ptr(5),
		QuizID:  &quiz.ID,
	})
	require.NoError(t, err)

	updated, err := Update(ctx, db, question, schemas.QuestionUpdate{Content: ptr("Q1 revised")})
	require.NoError(t, err)
	assert.Equal(t, "Q1 revised", updated.Content)
	assert.Equal(t, 5, updated.Points)
	assert.Equal(t, string(schemas.QuestionTypeTrueFalse), updated.Type)

	stored, err := Get[Question](ctx, db, question.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1 revised", stored.Content)
	assert.Equal(t, 5, stored.Points)

	updated, err = Update(ctx, db, stored, Patch{"points": 0, "id": 999, "bogus": "x"})
	require.NoError(t, err)
	assert.Equal(t, question.ID, updated.ID)
	assert.Equal(t, 0, updated.Points)
}

func TestDeleteQuizCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	quiz := seedQuiz(t, db, alice.ID, "T1")
	other := seedQuiz(t, db, alice.ID, "T2")

	var questionIDs []uint
	for _, content := range []string{"Q1", "Q2"} {
		question := seedQuestion(t, db, quiz.ID, content)
		seedOption(t, db, question.ID, "A")
		seedOption(t, db, question.ID, "B")
		questionIDs = append(questionIDs, question.ID)
	}
	survivor := seedQuestion(t, db, other.ID, "kept")
	seedOption(t, db, survivor.ID, "kept")

	deleted, err := Delete(ctx, db, quiz)
	require.NoError(t, err)
	assert.Equal(t, "T1", deleted.Title)

	questions, err := GetQuestionsByQuizID(ctx, db, quiz.ID)
	require.NoError(t, err)
	assert.Empty(t, questions)

	for _, id := range questionIDs {
		options, err := GetAnswerOptionsByQuestionID(ctx, db, id)
		require.NoError(t, err)
		assert.Empty(t, options)
	}

	var optionCount int64
	require.NoError(t, db.Model(&AnswerOption{}).Count(&optionCount).Error)
	assert.Equal(t, int64(1), optionCount)

	questions, err = GetQuestionsByQuizID(ctx, db, other.ID)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestDeleteQuestionCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	quiz := seedQuiz(t, db, alice.ID, "T1")
	question := seedQuestion(t, db, quiz.ID, "Q1")
	seedOption(t, db, question.ID, "A")

	deleted, err := DeleteByID[Question](ctx, db, question.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "Q1", deleted.Content)

	options, err := GetAnswerOptionsByQuestionID(ctx, db, question.ID)
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestDeleteByIDMissing(t *testing.T) {
	db := newTestDB(t)

	deleted, err := DeleteByID[Quiz](context.Background(), db, 404)
	assert.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestListQuizzesOrderAndOffset(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	var created []uint
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		created = append(created, seedQuiz(t, db, alice.ID, title).ID)
		time.Sleep(2 * time.Millisecond)
	}

	all, err := ListQuizzes(ctx, db, 0, 25)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := range all {
		assert.Equal(t, created[len(created)-1-i], all[i].ID)
	}
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	page, err := ListQuizzes(ctx, db, 2, 25)
	require.NoError(t, err)
	assert.Equal(t, quizIDs(all[2:]), quizIDs(page))

	page, err = ListQuizzes(ctx, db, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, quizIDs(all[1:3]), quizIDs(page))
}

func quizIDs(quizzes []Quiz) []uint {
	ids := make([]uint, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	return ids
}

func TestDuplicateUsernameIsIntegrityConflict(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	seedUser(t, db, "alice")
	_, err := CreateUser(ctx, db, schemas.UserCreate{
		Username: "alice",
		Email:    "other@x.com",
		Password: "pw",
	}, plainHasher{})
	require.Error(t, err)
	assert.True(t, IsIntegrityConflict(err))

	var count int64
	require.NoError(t, db.Model(&User{}).Where("username = ?", "alice").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	user, err := GetUserByEmail(ctx, db, "other@x.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestQuizForUnknownOwnerIsIntegrityConflict(t *testing.T) {
	db := newTestDB(t)

	owner := uint(999)
	_, err := CreateQuiz(context.Background(), db, schemas.QuizCreate{Title: "orphan", CreatedBy: &owner})
	require.Error(t, err)
	assert.True(t, IsIntegrityConflict(err))
}

func TestDeletingOwnerWithQuizzesIsIntegrityConflict(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	seedQuiz(t, db, alice.ID, "T1")

	_, err := Delete(ctx, db, alice)
	require.Error(t, err)
	assert.True(t, IsIntegrityConflict(err))
}

func TestReturnShapes(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	alice := seedUser(t, db, "alice")
	quiz := seedQuiz(t, db, alice.ID, "T1")
	question := seedQuestion(t, db, quiz.ID, "Q1")
	seedOption(t, db, question.ID, "A1")

	loaded, err := GetQuizWithQuestions(ctx, db, quiz.ID)
	require.NoError(t, err)
	out := loaded.ToReturnWithQuestions()
	assert.Equal(t, quiz.ID, out.ID)
	require.Len(t, out.Questions, 1)
	assert.Equal(t, schemas.QuestionTypeOpen, out.Questions[0].Type)

	loadedQuestion, err := GetQuestionWithAnswers(ctx, db, question.ID)
	require.NoError(t, err)
	withOptions := loadedQuestion.ToReturnWithOptions()
	require.Len(t, withOptions.AnswerOptions, 1)
	assert.Equal(t, question.ID, withOptions.AnswerOptions[0].QuestionID)

	empty := seedQuiz(t, db, alice.ID, "empty")
	assert.NotNil(t, empty.ToReturnWithQuestions().Questions)

	assert.Equal(t, "alice", alice.ToReturn().Username)
}
