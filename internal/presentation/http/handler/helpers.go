package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/utils"
)

// GetUserID extracts the authenticated user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	if GetRole(c) != utils.RoleUser {
		return nil
	}
	return getSubjectID(c)
}

// GetClientID extracts the authenticated portal client ID from the Gin context
func GetClientID(c *gin.Context) *uuid.UUID {
	if GetRole(c) != utils.RoleClient {
		return nil
	}
	return getSubjectID(c)
}

func getSubjectID(c *gin.Context) *uuid.UUID {
	subjectVal, exists := c.Get("subject_id")
	if !exists {
		return nil
	}
	subjectID, ok := subjectVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &subjectID
}

// GetRole extracts the authenticated role ("user" or "client")
func GetRole(c *gin.Context) string {
	role, exists := c.Get("auth_role")
	if !exists {
		return ""
	}
	return role.(string)
}

// GetUserEmail extracts the authenticated email from the Gin context
func GetUserEmail(c *gin.Context) string {
	email, exists := c.Get("user_email")
	if !exists {
		return ""
	}
	return email.(string)
}
