package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ambro01/simple-calories-sub000/config"
	"github.com/ambro01/simple-calories-sub000/controllers"
	"github.com/ambro01/simple-calories-sub000/middlewares"
	"github.com/ambro01/simple-calories-sub000/services"
)

func SetupRouter() *gin.Engine {
	db := config.DB

	hub := services.NewRealtimeHub()
	limiter := services.NewRateLimiter(services.EstimationRateLimit, services.EstimationRateWindow)

	authSvc := services.NewAuthService(db)
	goalSvc := services.NewGoalService(db)
	progressSvc := services.NewProgressService(db, goalSvc)
	estimationSvc := services.NewEstimationService(db, services.NewGeminiService(), limiter)
	mealSvc := services.NewMealService(db, estimationSvc, progressSvc, hub)

	authCtl := controllers.NewAuthController(authSvc)
	mealCtl := controllers.NewMealController(mealSvc)
	goalCtl := controllers.NewGoalController(goalSvc)
	progressCtl := controllers.NewProgressController(progressSvc)
	estimationCtl := controllers.NewEstimationController(estimationSvc)
	realtimeCtl := controllers.NewRealtimeController(hub)

	r := gin.Default()
	r.Use(middlewares.RequestID())

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
	}

	api := r.Group("/")
	api.Use(middlewares.AuthMiddleware(db))
	{
		api.POST("/meals", mealCtl.Create)
		api.GET("/meals", mealCtl.List)
		api.GET("/meals/:id", mealCtl.Get)
		api.PATCH("/meals/:id", mealCtl.Update)
		api.DELETE("/meals/:id", mealCtl.Delete)

		api.POST("/goals", goalCtl.Create)
		api.GET("/goals", goalCtl.List)
		api.GET("/goals/resolve", goalCtl.Resolve)
		api.PATCH("/goals/:id", goalCtl.Update)
		api.DELETE("/goals/:id", goalCtl.Delete)

		api.GET("/progress", progressCtl.GetByDate)
		api.GET("/progress/history", progressCtl.List)

		api.POST("/estimations", estimationCtl.Create)
		api.GET("/estimations", estimationCtl.List)
		api.GET("/estimations/:id", estimationCtl.Get)

		api.GET("/ws/progress", realtimeCtl.ProgressWS)
	}

	return r
}
