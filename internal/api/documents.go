package api

import (
	"context"                     // Context for slug lookups
	"fmt"                         // Slug suffixes
	"net/http"                    // HTTP status codes
	"project_hub/internal/docs"   // Markdown rendering
	"project_hub/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// DocumentRequest is the body of create and update calls
type DocumentRequest struct {
	Title     string `json:"title" binding:"required,max=200"` // Title
	Slug      string `json:"slug" binding:"omitempty,max=200"` // Derived from the title when empty
	Content   string `json:"content"`                          // Markdown body
	Published bool   `json:"published"`                        // Visible to others
	ProjectID *uint  `json:"project_id"`                       // Related project
}

// apply copies the request onto d and reports whether the slug was derived from the title
func (r DocumentRequest) apply(d *domain.Document) bool {
	d.Title = r.Title
	d.Content = r.Content
	d.Published = r.Published
	d.ProjectID = r.ProjectID
	if r.Slug == "" {
		d.Slug = docs.Slugify(r.Title)
		return true
	}
	d.Slug = docs.Slugify(r.Slug)
	return false
}

const maxSlugSuffix = 100

// slugTaken reports whether another document of the user uses slug
func slugTaken(ctx context.Context, db *gorm.DB, userID, exceptID uint, slug string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Document{}).
		Where("user_id = ? AND slug = ? AND id <> ?", userID, slug, exceptID).Count(&count).Error
	return count > 0, err
}

// assignSlug makes doc.Slug unique among the user's documents.
// A slug derived from the title gets a numeric suffix; a slug chosen by the client is a conflict.
func assignSlug(c *gin.Context, db *gorm.DB, userID, exceptID uint, doc *domain.Document, derived bool) bool {
	base := doc.Slug
	for n := 2; n <= maxSlugSuffix; n++ {
		taken, err := slugTaken(c.Request.Context(), db, userID, exceptID, doc.Slug)
		if err != nil {
			internalError(c, err, "Failed to check slug", logrus.Fields{"user_id": userID})
			return false
		}
		if !taken {
			return true
		}
		if !derived {
			break
		}
		doc.Slug = fmt.Sprintf("%s-%d", base, n) // Next candidate
	}
	fail(c, http.StatusConflict, "Slug already used")
	return false
}

// ListDocumentsHandler lists documents without their bodies
func ListDocumentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		page, pageSize, offset := pagination(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.Document{}).Scopes(owned(userID))
		if projectID, ok := queryUint(c, "project_id"); ok {
			query = query.Where("project_id = ?", projectID) // Filter by project
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			internalError(c, err, "Failed to count documents", logrus.Fields{"user_id": userID})
			return
		}
		documents := []domain.Document{}
		if err := query.Omit("content").Order("title asc").Offset(offset).Limit(pageSize).Find(&documents).Error; err != nil {
			internalError(c, err, "Failed to fetch documents", logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, pageResponse("documents", documents, page, pageSize, total))
	}
}

// CreateDocumentHandler creates a documentation page
func CreateDocumentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req DocumentRequest
		if !bindJSON(c, &req) {
			return
		}
		if !checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		doc := domain.Document{UserID: userID}
		derived := req.apply(&doc)
		if !assignSlug(c, db, userID, 0, &doc, derived) {
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&doc).Error; err != nil {
			if isDuplicate(err) {
				fail(c, http.StatusConflict, "Slug already used") // Lost a race for the slug
				return
			}
			internalError(c, err, "Failed to create document", logrus.Fields{"user_id": userID})
			return
		}
		logMutation("create_document", userID, doc.ID)
		c.JSON(http.StatusCreated, gin.H{"document": doc})
	}
}

// GetDocumentHandler returns one document with its markdown body
func GetDocumentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var doc domain.Document
		if !findOwned(c, db, userID, id, &doc, "Document not found") {
			return
		}
		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

// RenderDocumentHandler serves a document as a sanitised HTML page
func RenderDocumentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var doc domain.Document
		if !findOwned(c, db, userID, id, &doc, "Document not found") {
			return
		}
		page, err := docs.Page(doc.Title, doc.Content)
		if err != nil {
			internalError(c, err, "Failed to render document", logrus.Fields{"user_id": userID, "document_id": id})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	}
}

// UpdateDocumentHandler replaces a document's fields
func UpdateDocumentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req DocumentRequest
		if !bindJSON(c, &req) {
			return
		}
		var doc domain.Document
		if !findOwned(c, db, userID, id, &doc, "Document not found") {
			return
		}
		if !checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		derived := req.apply(&doc)
		if !assignSlug(c, db, userID, doc.ID, &doc, derived) {
			return
		}
		if err := db.WithContext(c.Request.Context()).Save(&doc).Error; err != nil {
			if isDuplicate(err) {
				fail(c, http.StatusConflict, "Slug already used")
				return
			}
			internalError(c, err, "Failed to update document", logrus.Fields{"user_id": userID, "document_id": id})
			return
		}
		logMutation("update_document", userID, doc.ID)
		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

// DeleteDocumentHandler deletes a document
func DeleteDocumentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var doc domain.Document
		if !findOwned(c, db, userID, id, &doc, "Document not found") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Delete(&doc).Error; err != nil {
			internalError(c, err, "Failed to delete document", logrus.Fields{"user_id": userID, "document_id": id})
			return
		}
		logMutation("delete_document", userID, id)
		c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
	}
}
