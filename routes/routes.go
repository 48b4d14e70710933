package routes

import (
	"studentquiz/handlers"
	"studentquiz/middleware"
	"studentquiz/services"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	rootHandler *handlers.RootHandler,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	feedHandler *handlers.FeedHandler,
	authService *services.AuthService,
) {
	router.GET("/", rootHandler.Index)
	router.GET("/health", rootHandler.Health)

	requireAuth := middleware.AuthMiddleware(authService)

	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(requireAuth)
		{
			protected.GET("/users/me", authHandler.GetProfile)
			protected.PATCH("/users/me", authHandler.UpdateProfile)

			quizzes := protected.Group("/quizzes")
			{
				quizzes.GET("", quizHandler.ListQuizzes)
				quizzes.POST("", quizHandler.CreateQuiz)
				quizzes.GET("/:id", quizHandler.GetQuiz)
				quizzes.PATCH("/:id", quizHandler.UpdateQuiz)
				quizzes.DELETE("/:id", quizHandler.DeleteQuiz)
				quizzes.GET("/:id/questions", quizHandler.ListQuestions)
				quizzes.POST("/:id/questions", quizHandler.CreateQuestion)
			}

			questions := protected.Group("/questions")
			{
				questions.GET("/:id", quizHandler.GetQuestion)
				questions.PATCH("/:id", quizHandler.UpdateQuestion)
				questions.DELETE("/:id", quizHandler.DeleteQuestion)
				questions.POST("/:id/options", quizHandler.CreateAnswerOption)
			}

			options := protected.Group("/options")
			{
				options.PATCH("/:id", quizHandler.UpdateAnswerOption)
				options.DELETE("/:id", quizHandler.DeleteAnswerOption)
			}
		}
	}

	// WebSocket change feed for quiz editors
	router.GET("/ws/quizzes/:id", requireAuth, feedHandler.QuizFeed)
}
