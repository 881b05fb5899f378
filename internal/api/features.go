package api

import (
	"net/http"                    // HTTP status codes
	"project_hub/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// FeatureRequestBody is the body of create and update calls
type FeatureRequestBody struct {
	Title       string `json:"title" binding:"required,max=200"`                                        // Title
	Description string `json:"description"`                                                             // Details
	Status      string `json:"status" binding:"omitempty,oneof=open planned in_progress done rejected"` // Lifecycle status
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`               // Priority
	ProjectID   *uint  `json:"project_id"`                                                              // Related project
}

func (r FeatureRequestBody) apply(f *domain.FeatureRequest) {
	f.Title = r.Title
	f.Description = r.Description
	f.ProjectID = r.ProjectID
	if r.Status != "" {
		f.Status = r.Status
	}
	if f.Status == "" {
		f.Status = domain.FeatureOpen
	}
	if r.Priority != "" {
		f.Priority = r.Priority
	}
	if f.Priority == "" {
		f.Priority = domain.PriorityMedium
	}
}

// ListFeaturesHandler lists feature requests, most voted first
func ListFeaturesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		page, pageSize, offset := pagination(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.FeatureRequest{}).Scopes(owned(userID))
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status) // Filter by status
		}
		if projectID, ok := queryUint(c, "project_id"); ok {
			query = query.Where("project_id = ?", projectID) // Filter by project
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			internalError(c, err, "Failed to count feature requests", logrus.Fields{"user_id": userID})
			return
		}
		features := []domain.FeatureRequest{}
		if err := query.Order("votes desc").Order("id asc").Offset(offset).Limit(pageSize).Find(&features).Error; err != nil {
			internalError(c, err, "Failed to fetch feature requests", logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, pageResponse("features", features, page, pageSize, total))
	}
}

// CreateFeatureHandler files a feature request
func CreateFeatureHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req FeatureRequestBody
		if !bindJSON(c, &req) {
			return
		}
		if !checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		feature := domain.FeatureRequest{UserID: userID}
		req.apply(&feature)
		if err := db.WithContext(c.Request.Context()).Create(&feature).Error; err != nil {
			internalError(c, err, "Failed to create feature request", logrus.Fields{"user_id": userID})
			return
		}
		logMutation("create_feature", userID, feature.ID)
		c.JSON(http.StatusCreated, gin.H{"feature": feature})
	}
}

// GetFeatureHandler returns one feature request
func GetFeatureHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var feature domain.FeatureRequest
		if !findOwned(c, db, userID, id, &feature, "Feature request not found") {
			return
		}
		c.JSON(http.StatusOK, gin.H{"feature": feature})
	}
}

// UpdateFeatureHandler replaces a feature request's fields, keeping its votes
func UpdateFeatureHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req FeatureRequestBody
		if !bindJSON(c, &req) {
			return
		}
		var feature domain.FeatureRequest
		if !findOwned(c, db, userID, id, &feature, "Feature request not found") {
			return
		}
		if !checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		req.apply(&feature)
		if err := db.WithContext(c.Request.Context()).Omit("votes").Save(&feature).Error; err != nil {
			internalError(c, err, "Failed to update feature request", logrus.Fields{"user_id": userID, "feature_id": id})
			return
		}
		logMutation("update_feature", userID, feature.ID)
		c.JSON(http.StatusOK, gin.H{"feature": feature})
	}
}

// VoteFeatureHandler adds one vote to a feature request
func VoteFeatureHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var feature domain.FeatureRequest
		if !findOwned(c, db, userID, id, &feature, "Feature request not found") {
			return
		}
		// Increment in SQL so concurrent votes are not lost
		if err := db.WithContext(c.Request.Context()).Model(&domain.FeatureRequest{}).Where("id = ?", id).
			UpdateColumn("votes", gorm.Expr("votes + ?", 1)).Error; err != nil {
			internalError(c, err, "Failed to vote", logrus.Fields{"user_id": userID, "feature_id": id})
			return
		}
		if err := db.WithContext(c.Request.Context()).First(&feature, id).Error; err != nil {
			internalError(c, err, "Failed to reload feature request", logrus.Fields{"user_id": userID, "feature_id": id})
			return
		}
		logMutation("vote_feature", userID, feature.ID)
		c.JSON(http.StatusOK, gin.H{"feature": feature})
	}
}

// DeleteFeatureHandler deletes a feature request
func DeleteFeatureHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var feature domain.FeatureRequest
		if !findOwned(c, db, userID, id, &feature, "Feature request not found") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Delete(&feature).Error; err != nil {
			internalError(c, err, "Failed to delete feature request", logrus.Fields{"user_id": userID, "feature_id": id})
			return
		}
		logMutation("delete_feature", userID, id)
		c.JSON(http.StatusOK, gin.H{"message": "Feature request deleted"})
	}
}
