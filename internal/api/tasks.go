package api

import (
	"net/http"                    // HTTP status codes
	"project_hub/internal/domain" // Importing domain models
	"project_hub/internal/utils"  // Cache helpers
	"time"                        // Completion timestamps

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// TaskRequest is the body of create and update calls
type TaskRequest struct {
	Title       string `json:"title" binding:"required,max=200"`                          // Title
	Description string `json:"description"`                                               // Details
	Status      string `json:"status" binding:"omitempty,oneof=todo in_progress done"`    // Status
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high urgent"` // Priority
	ProjectID   *uint  `json:"project_id"`                                                // Optional project
	DueDate     string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`          // Deadline
}

// TaskStatusRequest is the body of a status change
type TaskStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=todo in_progress done"` // New status
}

func (r TaskRequest) apply(t *domain.Task, now time.Time) {
	t.Title = r.Title
	t.Description = r.Description
	t.ProjectID = r.ProjectID
	t.DueDate, _ = parseOptionalDate(r.DueDate) // Format already validated
	if r.Priority != "" {
		t.Priority = r.Priority
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	status := r.Status
	if status == "" {
		status = t.Status
	}
	if status == "" {
		status = domain.TaskTodo
	}
	t.SetStatus(status, now)
}

// ListTasksHandler lists tasks filtered by status, project or priority
func ListTasksHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		page, pageSize, offset := pagination(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.Task{}).Scopes(owned(userID))
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status) // Filter by status
		}
		if priority := c.Query("priority"); priority != "" {
			query = query.Where("priority = ?", priority) // Filter by priority
		}
		if projectID, ok := queryUint(c, "project_id"); ok {
			query = query.Where("project_id = ?", projectID) // Filter by project
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			internalError(c, err, "Failed to count tasks", logrus.Fields{"user_id": userID})
			return
		}
		tasks := []domain.Task{}
		// Undated tasks last, then by deadline
		if err := query.Order("due_date IS NULL").Order("due_date asc").Order("id asc").
			Offset(offset).Limit(pageSize).Find(&tasks).Error; err != nil {
			internalError(c, err, "Failed to fetch tasks", logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, pageResponse("tasks", tasks, page, pageSize, total))
	}
}

// CreateTaskHandler creates a task
func CreateTaskHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req TaskRequest
		if !bindJSON(c, &req) {
			return
		}
		if !checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		task := domain.Task{UserID: userID}
		req.apply(&task, time.Now().UTC())
		if err := db.WithContext(c.Request.Context()).Create(&task).Error; err != nil {
			internalError(c, err, "Failed to create task", logrus.Fields{"user_id": userID})
			return
		}
		invalidate(cache, userID)
		logMutation("create_task", userID, task.ID)
		c.JSON(http.StatusCreated, gin.H{"task": task})
	}
}

// GetTaskHandler returns one task
func GetTaskHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var task domain.Task
		if !findOwned(c, db, userID, id, &task, "Task not found") {
			return
		}
		c.JSON(http.StatusOK, gin.H{"task": task})
	}
}

// UpdateTaskHandler replaces a task's fields
func UpdateTaskHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req TaskRequest
		if !bindJSON(c, &req) {
			return
		}
		var task domain.Task
		if !findOwned(c, db, userID, id, &task, "Task not found") {
			return
		}
		if !checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		req.apply(&task, time.Now().UTC())
		if err := db.WithContext(c.Request.Context()).Save(&task).Error; err != nil {
			internalError(c, err, "Failed to update task", logrus.Fields{"user_id": userID, "task_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("update_task", userID, task.ID)
		c.JSON(http.StatusOK, gin.H{"task": task})
	}
}

// UpdateTaskStatusHandler moves a task to another status
func UpdateTaskStatusHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req TaskStatusRequest
		if !bindJSON(c, &req) {
			return
		}
		var task domain.Task
		if !findOwned(c, db, userID, id, &task, "Task not found") {
			return
		}
		task.SetStatus(req.Status, time.Now().UTC())
		if err := db.WithContext(c.Request.Context()).Model(&task).
			Updates(map[string]any{"status": task.Status, "completed_at": task.CompletedAt}).Error; err != nil {
			internalError(c, err, "Failed to update task", logrus.Fields{"user_id": userID, "task_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("task_status_"+req.Status, userID, task.ID)
		c.JSON(http.StatusOK, gin.H{"task": task})
	}
}

// DeleteTaskHandler deletes a task
func DeleteTaskHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var task domain.Task
		if !findOwned(c, db, userID, id, &task, "Task not found") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Delete(&task).Error; err != nil {
			internalError(c, err, "Failed to delete task", logrus.Fields{"user_id": userID, "task_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("delete_task", userID, id)
		c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
	}
}
