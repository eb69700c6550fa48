package web

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Metrics(), cors.Default())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Webhooks read the raw body themselves; no auth middleware, the
	// signature is the gate.
	r.POST("/webhooks/payment", h.PaymentWebhook)
	r.POST("/webhooks/identity", h.IdentityWebhook)

	api := r.Group("/api/v1")
	api.GET("/courses/:id", h.GetCourse)
	api.GET("/courses/:id/enrollments/count", h.EnrollmentCount)

	authed := api.Group("", Auth())
	authed.POST("/checkout", h.StartCheckout)
	authed.GET("/me/enrollments", h.MyEnrollments)
	authed.POST("/progress", h.MarkProgress)
	authed.GET("/progress/:courseId", h.GetProgress)

	educator := api.Group("", Auth(), RequireEducator())
	educator.POST("/courses", h.CreateCourse)
	educator.GET("/educator/courses/:id/students", h.CourseStudents)

	return r
}
