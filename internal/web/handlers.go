package web

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/UmangSinghal0504/lms/internal/database"
	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/service"
)

const (
	paymentSignatureHeader  = "FastPay-Signature"
	identitySignatureHeader = "Identity-Signature"
)

type Handler struct {
	db          *sql.DB
	checkout    service.CheckoutService
	webhooks    service.WebhookService
	identity    service.IdentityService
	enrollments service.EnrollmentService
	progress    service.ProgressService
	courses     service.CourseService
	log         *slog.Logger
}

func NewHandler(
	db *sql.DB,
	checkout service.CheckoutService,
	webhooks service.WebhookService,
	identity service.IdentityService,
	enrollments service.EnrollmentService,
	progress service.ProgressService,
	courses service.CourseService,
	log *slog.Logger,
) *Handler {
	return &Handler{
		db:          db,
		checkout:    checkout,
		webhooks:    webhooks,
		identity:    identity,
		enrollments: enrollments,
		progress:    progress,
		courses:     courses,
		log:         log,
	}
}

// fail maps the domain error taxonomy onto status codes. Anything
// unrecognized counts as transient and surfaces as 500 so callers with
// retry policies (the payment provider above all) redeliver.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrConflict):
		status, message = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrNotEnrolled):
		status, message = http.StatusForbidden, "not enrolled"
	case errors.Is(err, domain.ErrBadSignature):
		status, message = http.StatusBadRequest, "bad request"
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

func (h *Handler) PaymentWebhook(c *gin.Context) {
	// Signature verification needs the body bytes exactly as sent.
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"received": false})
		return
	}

	outcome, err := h.webhooks.HandleEvent(c.Request.Context(), body, c.GetHeader(paymentSignatureHeader))
	h.webhookResponse(c, outcome, err)
}

func (h *Handler) IdentityWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"received": false})
		return
	}

	outcome, err := h.identity.HandleEvent(c.Request.Context(), body, c.GetHeader(identitySignatureHeader))
	h.webhookResponse(c, outcome, err)
}

func (h *Handler) webhookResponse(c *gin.Context, outcome service.Outcome, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrBadSignature) {
			// Generic rejection, no detail about which check lost.
			c.JSON(http.StatusBadRequest, gin.H{"received": false})
			return
		}
		// Transient: non-2xx asks the provider to redeliver.
		h.log.Error("webhook processing failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"received": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}

type checkoutRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

func (h *Handler) StartCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Course ID is required"})
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid course id"})
		return
	}

	sessionURL, err := h.checkout.StartCheckout(c.Request.Context(), currentUser(c), courseID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_url": sessionURL})
}

func (h *Handler) MyEnrollments(c *gin.Context) {
	courses, err := h.enrollments.UserEnrollments(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enrolledCourses": courses})
}

func (h *Handler) EnrollmentCount(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid course id"})
		return
	}
	count, err := h.enrollments.CourseEnrollmentCount(c.Request.Context(), courseID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

func (h *Handler) CourseStudents(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid course id"})
		return
	}
	students, err := h.enrollments.CourseStudents(c.Request.Context(), currentUser(c), courseID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enrolledStudents": students})
}

type progressRequest struct {
	CourseID  string `json:"courseId" binding:"required"`
	LectureID string `json:"lectureId" binding:"required"`
}

func (h *Handler) MarkProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "courseId and lectureId are required"})
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid course id"})
		return
	}
	lectureID, err := uuid.Parse(req.LectureID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid lecture id"})
		return
	}

	if err := h.progress.MarkComplete(c.Request.Context(), currentUser(c), courseID, lectureID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Progress Updated"})
}

func (h *Handler) GetProgress(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid course id"})
		return
	}
	progress, err := h.progress.GetProgress(c.Request.Context(), currentUser(c), courseID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"completedLectures": progress.CompletedLectures,
		"totalLectures":     progress.TotalLectures,
		"percent":           progress.Percent,
	})
}

type createCourseRequest struct {
	Title       string   `json:"courseTitle" binding:"required"`
	Description string   `json:"courseDescription"`
	Price       float64  `json:"coursePrice"`
	Discount    float64  `json:"discount"`
	Lectures    []string `json:"lectures"`
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields"})
		return
	}

	input := service.NewCourse{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
	}
	for _, title := range req.Lectures {
		input.Lectures = append(input.Lectures, service.NewLecture{Title: title})
	}

	course, err := h.courses.CreateCourse(c.Request.Context(), currentUser(c), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "course": course})
}

func (h *Handler) GetCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid course id"})
		return
	}
	course, lectures, err := h.courses.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "course": course, "lectures": lectures})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, database.Health(h.db))
}
