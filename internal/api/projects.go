package api

import (
	"net/http"                    // HTTP status codes
	"project_hub/internal/domain" // Importing domain models
	"project_hub/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// ProjectRequest is the body of create and update calls
type ProjectRequest struct {
	Name        string          `json:"name" binding:"required,max=160"`                                              // Project name
	Description string          `json:"description"`                                                                  // Description
	Status      string          `json:"status" binding:"omitempty,oneof=planning active on_hold completed cancelled"` // Lifecycle status
	Budget      decimal.Decimal `json:"budget"`                                                                       // Planned budget
	ClientID    *uint           `json:"client_id"`                                                                    // Optional client
	StartDate   string          `json:"start_date" binding:"omitempty,datetime=2006-01-02"`                           // Planned start
	DueDate     string          `json:"due_date" binding:"omitempty,datetime=2006-01-02"`                             // Deadline
}

// toProject validates cross-field rules and copies the request onto p
func (r ProjectRequest) toProject(c *gin.Context, p *domain.Project) bool {
	if r.Budget.IsNegative() {
		fail(c, http.StatusBadRequest, "Budget cannot be negative")
		return false
	}
	start, _ := parseOptionalDate(r.StartDate) // Format already validated
	due, _ := parseOptionalDate(r.DueDate)
	if start != nil && due != nil && due.Before(*start) {
		fail(c, http.StatusBadRequest, "Due date is before start date")
		return false
	}
	p.Name = r.Name
	p.Description = r.Description
	if r.Status != "" {
		p.Status = r.Status
	}
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	p.Budget = r.Budget
	p.ClientID = r.ClientID
	p.StartDate = start
	p.DueDate = due
	return true
}

// ListProjectsHandler lists projects, filtered by status or client
func ListProjectsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		page, pageSize, offset := pagination(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.Project{}).Scopes(owned(userID))
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status) // Filter by status
		}
		if clientID, ok := queryUint(c, "client_id"); ok {
			query = query.Where("client_id = ?", clientID) // Filter by client
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			internalError(c, err, "Failed to count projects", logrus.Fields{"user_id": userID})
			return
		}
		projects := []domain.Project{}
		if err := query.Order("created_at desc").Order("id desc").Offset(offset).Limit(pageSize).Find(&projects).Error; err != nil {
			internalError(c, err, "Failed to fetch projects", logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, pageResponse("projects", projects, page, pageSize, total))
	}
}

// CreateProjectHandler creates a project
func CreateProjectHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req ProjectRequest
		if !bindJSON(c, &req) {
			return
		}
		project := domain.Project{UserID: userID}
		if !req.toProject(c, &project) || !checkRef(c, db, &domain.Client{}, userID, req.ClientID, "client") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&project).Error; err != nil {
			internalError(c, err, "Failed to create project", logrus.Fields{"user_id": userID})
			return
		}
		invalidate(cache, userID)
		logMutation("create_project", userID, project.ID)
		c.JSON(http.StatusCreated, gin.H{"project": project})
	}
}

// GetProjectHandler returns a project with task progress and spend
func GetProjectHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var project domain.Project
		if !findOwned(c, db, userID, id, &project, "Project not found") {
			return
		}
		// Task counts by status
		var rows []struct {
			Status string
			Count  int64
		}
		if err := db.WithContext(c.Request.Context()).Model(&domain.Task{}).
			Select("status, count(*) as count").
			Where("user_id = ? AND project_id = ?", userID, id).
			Group("status").Scan(&rows).Error; err != nil {
			internalError(c, err, "Failed to count tasks", logrus.Fields{"user_id": userID, "project_id": id})
			return
		}
		counts := map[string]int64{domain.TaskTodo: 0, domain.TaskInProgress: 0, domain.TaskDone: 0}
		var total int64
		for _, r := range rows {
			counts[r.Status] = r.Count
			total += r.Count
		}
		// Spend against budget
		var expenses []domain.Expense
		if err := db.WithContext(c.Request.Context()).Select("amount").
			Where("user_id = ? AND project_id = ?", userID, id).Find(&expenses).Error; err != nil {
			internalError(c, err, "Failed to sum expenses", logrus.Fields{"user_id": userID, "project_id": id})
			return
		}
		spent := decimal.Zero
		for _, e := range expenses {
			spent = spent.Add(e.Amount)
		}
		progress := 0 // Percent of tasks done
		if total > 0 {
			progress = int(counts[domain.TaskDone] * 100 / total)
		}
		c.JSON(http.StatusOK, gin.H{
			"project":     project,                   // Project row
			"task_counts": counts,                    // Tasks per status
			"progress":    progress,                  // Percent done
			"spent":       spent,                     // Expenses booked to the project
			"remaining":   project.Budget.Sub(spent), // Budget left
		})
	}
}

// UpdateProjectHandler replaces a project's fields
func UpdateProjectHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req ProjectRequest
		if !bindJSON(c, &req) {
			return
		}
		var project domain.Project
		if !findOwned(c, db, userID, id, &project, "Project not found") {
			return
		}
		if !req.toProject(c, &project) || !checkRef(c, db, &domain.Client{}, userID, req.ClientID, "client") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Save(&project).Error; err != nil {
			internalError(c, err, "Failed to update project", logrus.Fields{"user_id": userID, "project_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("update_project", userID, project.ID)
		c.JSON(http.StatusOK, gin.H{"project": project})
	}
}

// DeleteProjectHandler deletes a project with its tasks and detaches everything else
func DeleteProjectHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var project domain.Project
		if !findOwned(c, db, userID, id, &project, "Project not found") {
			return
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			// Tasks go with the project
			if err := tx.Where("user_id = ? AND project_id = ?", userID, id).Delete(&domain.Task{}).Error; err != nil {
				return err
			}
			for _, model := range []any{&domain.Invoice{}, &domain.Expense{}, &domain.FeatureRequest{}, &domain.Document{}} {
				// Detach dependents
				if err := tx.Model(model).Where("user_id = ? AND project_id = ?", userID, id).Update("project_id", nil).Error; err != nil {
					return err
				}
			}
			return tx.Delete(&project).Error
		})
		if err != nil {
			internalError(c, err, "Failed to delete project", logrus.Fields{"user_id": userID, "project_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("delete_project", userID, id)
		c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
	}
}

// ListProjectTasksHandler lists the tasks of one project
func ListProjectTasksHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var project domain.Project
		if !findOwned(c, db, userID, id, &project, "Project not found") {
			return
		}
		tasks := []domain.Task{}
		if err := db.WithContext(c.Request.Context()).Scopes(owned(userID)).
			Where("project_id = ?", id).Order("id asc").Find(&tasks).Error; err != nil {
			internalError(c, err, "Failed to fetch tasks", logrus.Fields{"user_id": userID, "project_id": id})
			return
		}
		c.JSON(http.StatusOK, gin.H{"project": project, "tasks": tasks})
	}
}
