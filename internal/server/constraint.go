package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	constraintdomain "github.com/keepsakelabs/keepsake/internal/constraint/domain"
)

func (s *Server) CreateConstraint(c *gin.Context) {
	var req constraintdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.constraintSvc.CreateConstraint(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetItemConstraints lists every constraint touching an item, whichever
// endpoint of the row it sits on.
func (s *Server) GetItemConstraints(c *gin.Context) {
	itemType := strings.TrimSpace(c.Query("itemType"))
	if itemType == "" {
		AbortWithError(c, newValidationError("itemType", "invalid_item_type", "itemType is required"))
		return
	}

	resp, err := s.constraintSvc.GetItemConstraints(c.Request.Context(), c.Param("itemId"), itemType)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteConstraint(c *gin.Context) {
	if err := s.constraintSvc.DeleteConstraint(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type validateCartRequest struct {
	Items []constraintdomain.CartItem `json:"items"`
}

func (s *Server) ValidateCart(c *gin.Context) {
	var req validateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.constraintSvc.ValidateCart(c.Request.Context(), req.Items)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
