package handlers

import (
	"net/http"

	"studentquiz/models"
	"studentquiz/schemas"
	"studentquiz/services"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService *services.QuizService
}

func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
	}
}

func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	var params schemas.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offset, limit := params.Window()
	quizzes, err := h.quizService.ListQuizzes(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]schemas.QuizReturn, 0, len(quizzes))
	for i := range quizzes {
		out = append(out, quizzes[i].ToReturn())
	}
	c.JSON(http.StatusOK, out)
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req schemas.QuizCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.CreateQuiz(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz.ToReturn())
}

func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, ok := pathID(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.GetQuiz(c.Request.Context(), quizID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz.ToReturnWithQuestions())
}

func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID, ok := pathID(c)
	if !ok {
		return
	}

	var req schemas.QuizUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.UpdateQuiz(c.Request.Context(), currentUser(c), quizID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz.ToReturn())
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, ok := pathID(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.DeleteQuiz(c.Request.Context(), currentUser(c), quizID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz.ToReturn())
}

func (h *QuizHandler) ListQuestions(c *gin.Context) {
	quizID, ok := pathID(c)
	if !ok {
		return
	}

	questions, err := h.quizService.ListQuestions(c.Request.Context(), quizID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, questionReturns(questions))
}

func (h *QuizHandler) CreateQuestion(c *gin.Context) {
	quizID, ok := pathID(c)
	if !ok {
		return
	}

	var req schemas.QuestionCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.quizService.CreateQuestion(c.Request.Context(), currentUser(c), quizID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question.ToReturn())
}

func (h *QuizHandler) GetQuestion(c *gin.Context) {
	questionID, ok := pathID(c)
	if !ok {
		return
	}

	question, err := h.quizService.GetQuestion(c.Request.Context(), questionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, question.ToReturnWithOptions())
}

func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	questionID, ok := pathID(c)
	if !ok {
		return
	}

	var req schemas.QuestionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.quizService.UpdateQuestion(c.Request.Context(), currentUser(c), questionID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, question.ToReturn())
}

func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	questionID, ok := pathID(c)
	if !ok {
		return
	}

	question, err := h.quizService.DeleteQuestion(c.Request.Context(), currentUser(c), questionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, question.ToReturn())
}

func (h *QuizHandler) CreateAnswerOption(c *gin.Context) {
	questionID, ok := pathID(c)
	if !ok {
		return
	}

	var req schemas.AnswerOptionCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	option, err := h.quizService.CreateAnswerOption(c.Request.Context(), currentUser(c), questionID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, option.ToReturn())
}

func (h *QuizHandler) UpdateAnswerOption(c *gin.Context) {
	optionID, ok := pathID(c)
	if !ok {
		return
	}

	var req schemas.AnswerOptionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	option, err := h.quizService.UpdateAnswerOption(c.Request.Context(), currentUser(c), optionID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, option.ToReturn())
}

func (h *QuizHandler) DeleteAnswerOption(c *gin.Context) {
	optionID, ok := pathID(c)
	if !ok {
		return
	}

	option, err := h.quizService.DeleteAnswerOption(c.Request.Context(), currentUser(c), optionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, option.ToReturn())
}

func questionReturns(questions []models.Question) []schemas.QuestionReturn {
	out := make([]schemas.QuestionReturn, 0, len(questions))
	for i := range questions {
		out = append(out, questions[i].ToReturn())
	}
	return out
}
