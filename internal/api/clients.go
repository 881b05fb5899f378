package api

import (
	"net/http"                    // HTTP status codes
	"project_hub/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// ClientRequest is the body of create and update calls
type ClientRequest struct {
	Name    string `json:"name" binding:"required,max=160"`         // Contact name
	Email   string `json:"email" binding:"omitempty,email,max=191"` // Billing email
	Company string `json:"company" binding:"max=160"`               // Company name
	Phone   string `json:"phone" binding:"max=40"`                  // Phone number
	Notes   string `json:"notes"`                                   // Free-form notes
}

func (r ClientRequest) apply(cl *domain.Client) {
	cl.Name = r.Name
	cl.Email = r.Email
	cl.Company = r.Company
	cl.Phone = r.Phone
	cl.Notes = r.Notes
}

// ListClientsHandler lists the user's clients, optionally filtered by a search term
func ListClientsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		page, pageSize, offset := pagination(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.Client{}).Scopes(owned(userID))
		if q := c.Query("q"); q != "" {
			like := "%" + q + "%"
			query = query.Where("name LIKE ? OR company LIKE ? OR email LIKE ?", like, like, like) // Search
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			internalError(c, err, "Failed to count clients", logrus.Fields{"user_id": userID})
			return
		}
		clients := []domain.Client{}
		if err := query.Order("name asc").Offset(offset).Limit(pageSize).Find(&clients).Error; err != nil {
			internalError(c, err, "Failed to fetch clients", logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, pageResponse("clients", clients, page, pageSize, total))
	}
}

// CreateClientHandler creates a client
func CreateClientHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req ClientRequest
		if !bindJSON(c, &req) {
			return
		}
		client := domain.Client{UserID: userID}
		req.apply(&client)
		if err := db.WithContext(c.Request.Context()).Create(&client).Error; err != nil {
			internalError(c, err, "Failed to create client", logrus.Fields{"user_id": userID})
			return
		}
		logMutation("create_client", userID, client.ID)
		c.JSON(http.StatusCreated, gin.H{"client": client})
	}
}

// GetClientHandler returns one client with its billing totals
func GetClientHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var client domain.Client
		if !findOwned(c, db, userID, id, &client, "Client not found") {
			return
		}
		var projects, invoices int64 // Related row counts
		db.WithContext(c.Request.Context()).Model(&domain.Project{}).Scopes(owned(userID)).Where("client_id = ?", id).Count(&projects)
		db.WithContext(c.Request.Context()).Model(&domain.Invoice{}).Scopes(owned(userID)).Where("client_id = ?", id).Count(&invoices)
		c.JSON(http.StatusOK, gin.H{"client": client, "projects": projects, "invoices": invoices})
	}
}

// UpdateClientHandler replaces a client's fields
func UpdateClientHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req ClientRequest
		if !bindJSON(c, &req) {
			return
		}
		var client domain.Client
		if !findOwned(c, db, userID, id, &client, "Client not found") {
			return
		}
		req.apply(&client)
		if err := db.WithContext(c.Request.Context()).Save(&client).Error; err != nil {
			internalError(c, err, "Failed to update client", logrus.Fields{"user_id": userID, "client_id": id})
			return
		}
		logMutation("update_client", userID, client.ID)
		c.JSON(http.StatusOK, gin.H{"client": client})
	}
}

// DeleteClientHandler deletes a client and detaches its projects, invoices and contracts
func DeleteClientHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var client domain.Client
		if !findOwned(c, db, userID, id, &client, "Client not found") {
			return
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			for _, model := range []any{&domain.Project{}, &domain.Invoice{}, &domain.Subscription{}} {
				// Detach dependents
				if err := tx.Model(model).Where("user_id = ? AND client_id = ?", userID, id).Update("client_id", nil).Error; err != nil {
					return err // Return error to rollback
				}
			}
			return tx.Delete(&client).Error
		})
		if err != nil {
			internalError(c, err, "Failed to delete client", logrus.Fields{"user_id": userID, "client_id": id})
			return
		}
		logMutation("delete_client", userID, id)
		c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
	}
}
