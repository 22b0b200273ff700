package middleware

import (
	"github.com/Hecoloko/shulgenius-api/internal/constants"
	"github.com/Hecoloko/shulgenius-api/internal/database"
	apierrors "github.com/Hecoloko/shulgenius-api/internal/errors"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequireOrganizationAccess checks if the user is a member of the organization
func RequireOrganizationAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var org models.Organization
		if err := database.GetDB().First(&org, "id = ?", orgID).Error; err != nil {
			// Return 404 instead of 403 to avoid leaking organization existence
			apierrors.NotFound(c, "Organization not found")
			c.Abort()
			return
		}

		var member models.OrganizationMember
		err = database.GetDB().
			Where("organization_id = ? AND user_id = ?", orgID, userID).
			First(&member).Error
		if err != nil {
			apierrors.NotFound(c, "Organization not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyOrganization, org)
		c.Set(constants.ContextKeyMembership, member)
		c.Next()
	}
}

// RequireOrganizationOwner checks if the user is an owner of the organization
func RequireOrganizationOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(constants.ContextKeyMembership)
		if !exists {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}

		member, ok := value.(models.OrganizationMember)
		if !ok || member.Role != models.RoleOwner {
			apierrors.Forbidden(c, "Owner access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetOrganization retrieves the organization loaded by
// RequireOrganizationAccess.
func GetOrganization(c *gin.Context) (models.Organization, bool) {
	value, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		return models.Organization{}, false
	}
	org, ok := value.(models.Organization)
	return org, ok
}
