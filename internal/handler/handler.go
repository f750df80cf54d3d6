package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"collegedesk/internal/auth"
	"collegedesk/internal/exam"
	"collegedesk/internal/registry"
	"collegedesk/internal/timetable"
)

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	registry  *registry.Service
	exams     *exam.Service
	timetable *timetable.Service

	jwtIssuer string
	jwtKey    string
	accessTTL time.Duration
}

// New creates a handler.
func New(reg *registry.Service, exams *exam.Service, tt *timetable.Service, jwtIssuer, jwtKey string, accessTTL time.Duration) *Handler {
	return &Handler{
		registry:  reg,
		exams:     exams,
		timetable: tt,
		jwtIssuer: jwtIssuer,
		jwtKey:    jwtKey,
		accessTTL: accessTTL,
	}
}

// ---------- Register / Login ----------

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RollNo   string `json:"rollNo"`
}

// Register creates an account and issues a token. Validation failures keep the
// original contract: 200 with success:false and a message.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "missing details"})
		return
	}

	account, err := h.registry.Register(c.Request.Context(), registry.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		RollNo:   req.RollNo,
	})
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalid):
			c.JSON(http.StatusOK, gin.H{"success": false, "message": userMessage(err)})
		case errors.Is(err, registry.ErrConflict):
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "account already exists"})
		default:
			h.fail(c, "register", err)
		}
		return
	}

	h.issueToken(c, account)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "missing details"})
		return
	}

	account, err := h.registry.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "user does not exist"})
		case errors.Is(err, registry.ErrBadCredentials):
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "invalid credentials"})
		case errors.Is(err, registry.ErrInvalid):
			c.JSON(http.StatusOK, gin.H{"success": false, "message": userMessage(err)})
		default:
			h.fail(c, "login", err)
		}
		return
	}

	h.issueToken(c, account)
}

func (h *Handler) issueToken(c *gin.Context, account *registry.Account) {
	token, _, err := auth.Issue(account.RollNo, account.Role, h.jwtIssuer, h.jwtKey, h.accessTTL)
	if err != nil {
		h.fail(c, "token issue", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// Profile returns the authenticated caller's account.
func (h *Handler) Profile(c *gin.Context) {
	account := auth.CallerAccount(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": account})
}

// ---------- Exams ----------

// UploadSittings ingests an exam seating sheet, replacing the whole collection.
func (h *Handler) UploadSittings(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no file uploaded"})
		return
	}
	defer file.Close()

	count, err := h.exams.Ingest(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, exam.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": userMessage(err)})
			return
		}
		h.fail(c, "sheet upload", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("excel data uploaded successfully (%d rows)", count),
	})
}

// ExamsByRollNo returns all sittings matching a roll number, with shift times.
func (h *Handler) ExamsByRollNo(c *gin.Context) {
	rollNo := c.Param("rollno")
	exams, err := h.exams.LookupByRollNo(c.Request.Context(), rollNo)
	if err != nil {
		switch {
		case errors.Is(err, exam.ErrInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": userMessage(err)})
		case errors.Is(err, exam.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "no exams found for the given roll number"})
		default:
			h.fail(c, "exam lookup", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "exams": exams})
}

type shiftRequest struct {
	Shift     string `json:"shift"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// CreateShift replaces the active shift timing.
func (h *Handler) CreateShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "all fields are required"})
		return
	}
	st, err := h.exams.CreateShift(c.Request.Context(), req.Shift, req.StartTime, req.EndTime)
	if err != nil {
		if errors.Is(err, exam.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": userMessage(err)})
			return
		}
		h.fail(c, "shift create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "shift timing created successfully",
		"shiftTiming": st,
	})
}

// ExportSittings streams the current sitting collection as an xlsx workbook.
func (h *Handler) ExportSittings(c *gin.Context) {
	buf, err := h.exams.ExportSittings(c.Request.Context())
	if err != nil {
		h.fail(c, "sitting export", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="sittings.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ---------- Timetable ----------

type timetableRequest struct {
	Department string                   `json:"department"`
	Year       int                      `json:"year"`
	Schedule   []timetable.ScheduleItem `json:"schedule"`
}

// CreateTimetable bulk-inserts a department/year schedule.
func (h *Handler) CreateTimetable(c *gin.Context) {
	var req timetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid data provided"})
		return
	}
	entries, err := h.timetable.CreateBulk(c.Request.Context(), req.Department, req.Year, req.Schedule)
	if err != nil {
		if errors.Is(err, timetable.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": userMessage(err)})
			return
		}
		h.fail(c, "timetable create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "timetable created successfully", "data": entries})
}

// GetTimetable returns the raw entry list for a department/year. The client
// groups by day and sorts by start time.
func (h *Handler) GetTimetable(c *gin.Context) {
	yearStr := c.Query("year")
	department := c.Query("department")
	year, err := strconv.Atoi(yearStr)
	if yearStr == "" || department == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "year and department are required"})
		return
	}
	entries, err := h.timetable.Get(c.Request.Context(), department, year)
	if err != nil {
		if errors.Is(err, timetable.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": userMessage(err)})
			return
		}
		h.fail(c, "timetable fetch", err)
		return
	}
	if entries == nil {
		entries = []timetable.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

type extraClassRequest struct {
	Department string `json:"department"`
	Year       int    `json:"year"`
	Subject    string `json:"subjectCode"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Day        string `json:"day"`
	Room       string `json:"room"`
}

// AddExtraClass creates one ad-hoc Extra Class entry.
func (h *Handler) AddExtraClass(c *gin.Context) {
	var req extraClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "all fields are required"})
		return
	}
	entry, err := h.timetable.AddExtra(c.Request.Context(), req.Department, req.Year, timetable.ScheduleItem{
		Subject:   req.Subject,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Day:       req.Day,
		Room:      req.Room,
	})
	if err != nil {
		if errors.Is(err, timetable.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": userMessage(err)})
			return
		}
		h.fail(c, "extra class", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": entry})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateClassStatus flips a timetable entry between Scheduled and Cancelled.
func (h *Handler) UpdateClassStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "status is required"})
		return
	}
	entry, err := h.timetable.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, timetable.ErrInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": userMessage(err)})
		case errors.Is(err, timetable.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "class not found"})
		default:
			h.fail(c, "status update", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entry})
}

// DeleteExtraClass removes an Extra Class entry.
func (h *Handler) DeleteExtraClass(c *gin.Context) {
	if err := h.timetable.DeleteExtra(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, timetable.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "class not found"})
			return
		}
		h.fail(c, "extra class delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "extra class deleted successfully"})
}

// ---------- Departments / Admin ----------

type departmentRequest struct {
	Code string `json:"departmentCode"`
	Name string `json:"departmentName"`
}

// AddDepartment stores a department code/name pair.
func (h *Handler) AddDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "department code and name are required"})
		return
	}
	dept, err := h.registry.AddDepartment(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": userMessage(err)})
		case errors.Is(err, registry.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "department already exists"})
		default:
			h.fail(c, "department create", err)
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "department": dept})
}

// ListDepartments returns the reference data set.
func (h *Handler) ListDepartments(c *gin.Context) {
	depts, err := h.registry.ListDepartments(c.Request.Context())
	if err != nil {
		h.fail(c, "department list", err)
		return
	}
	if depts == nil {
		depts = []registry.Department{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "departments": depts})
}

// ListAccounts returns every account (admin only).
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.registry.ListAccounts(c.Request.Context())
	if err != nil {
		h.fail(c, "account list", err)
		return
	}
	if accounts == nil {
		accounts = []registry.Account{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": accounts})
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateRole changes an account's role (admin only).
func (h *Handler) UpdateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "role is required"})
		return
	}
	account, err := h.registry.UpdateRole(c.Request.Context(), c.Param("userId"), req.Role)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": userMessage(err)})
		case errors.Is(err, registry.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
		default:
			h.fail(c, "role update", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": account})
}

// fail logs a store-level error and reports it as a generic failure.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	log.Printf("%s failed: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
}

// userMessage strips a matched sentinel's prefix so the caller sees only the
// detail the service wrapped around it.
func userMessage(err error) string {
	for _, sentinel := range []error{
		registry.ErrInvalid, exam.ErrInvalid, timetable.ErrInvalid,
		registry.ErrNotFound, exam.ErrNotFound, timetable.ErrNotFound,
	} {
		if !errors.Is(err, sentinel) {
			continue
		}
		if detail, ok := strings.CutPrefix(err.Error(), sentinel.Error()+": "); ok {
			return detail
		}
	}
	return err.Error()
}
