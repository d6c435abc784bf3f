package api

import (
	"vehicle_parking/internal/api/handler"
	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(as *service.AuthService, ss *service.SessionService,
	ls *service.LotService, rs *service.ReservationService,
	authMw *middleware.AuthMiddleware) *gin.Engine {

	r := gin.Default()

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Client-Role, X-Client-UserId, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.Use(authMw.Identify())

	authHandler := handler.NewAuthHandler(as, ss)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authMw.RequireCaller(), authHandler.Logout)
	}

	lotHandler := handler.NewLotHandler(ls)
	spotHandler := handler.NewSpotHandler(ls)
	reservationHandler := handler.NewReservationHandler(rs)

	apiRoutes := r.Group("/api")
	{
		apiRoutes.GET("/lots", lotHandler.ListLots)
		apiRoutes.GET("/lots/:id", lotHandler.GetLotDetail)
		// Coarse gate only; both handlers run their own role/ownership check.
		apiRoutes.GET("/spots/:id", authMw.RequireCaller(), spotHandler.GetSpot)
		apiRoutes.GET("/users/:user_id/reservations", authMw.RequireCaller(), reservationHandler.UserReservations)
	}

	adminRoutes := r.Group("/admin")
	adminRoutes.Use(authMw.RequireCaller(), authMw.RequireRole("admin"))
	{
		adminRoutes.GET("/lots", lotHandler.ListLots)
		adminRoutes.POST("/lots", lotHandler.CreateLot)
		adminRoutes.PUT("/lots/:id", lotHandler.UpdateLot)
		adminRoutes.DELETE("/lots/:id", lotHandler.DeleteLot)
		adminRoutes.GET("/dashboard", lotHandler.AdminDashboard)
	}

	userRoutes := r.Group("/user")
	userRoutes.Use(authMw.RequireCaller(), authMw.RequireRole("user"))
	{
		userRoutes.POST("/book/:lot_id", reservationHandler.Book)
		userRoutes.POST("/release/:reservation_id", reservationHandler.Release)
		userRoutes.GET("/reservations", reservationHandler.Active)
		userRoutes.GET("/history", reservationHandler.History)
		userRoutes.GET("/dashboard", reservationHandler.Dashboard)
	}

	return r
}
