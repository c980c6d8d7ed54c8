package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
	customizationdomain "github.com/keepsakelabs/keepsake/internal/customization/domain"
)

func (s *Server) CreateRule(c *gin.Context) {
	var req customizationdomain.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customizationSvc.CreateRule(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRules(c *gin.Context) {
	productTypeID := strings.TrimSpace(c.Query("product_type_id"))
	if productTypeID == "" {
		AbortWithError(c, newValidationError("product_type_id", "invalid_product_type", "product_type_id is required"))
		return
	}

	resp, err := s.customizationSvc.ListRules(c.Request.Context(), productTypeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRule(c *gin.Context) {
	resp, err := s.customizationSvc.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRule(c *gin.Context) {
	var req customizationdomain.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.customizationSvc.UpdateRule(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRule(c *gin.Context) {
	if err := s.customizationSvc.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListCustomizations returns the ordered rule set for a storefront
// reference. The reference can be a product type id or a product id; the
// product form resolves to its owning type first.
func (s *Server) ListCustomizations(c *gin.Context) {
	ctx := c.Request.Context()
	reference := c.Param("referenceId")

	productTypeID := reference
	if _, err := s.catalogSvc.GetProductType(ctx, reference); err != nil {
		if err != catalogdomain.ErrNotFound && err != catalogdomain.ErrInvalidID {
			AbortWithError(c, err)
			return
		}
		resolved, resolveErr := s.catalogSvc.ResolveProductType(ctx, reference)
		if resolveErr != nil {
			AbortWithError(c, resolveErr)
			return
		}
		productTypeID = resolved.ID
	}

	resp, err := s.customizationSvc.ListRules(ctx, productTypeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type validateSelectionsRequest struct {
	ProductTypeID  string                           `json:"product_type_id"`
	Customizations []customizationdomain.Selection `json:"customizations"`
}

func (s *Server) ValidateSelections(c *gin.Context) {
	var req validateSelectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.customizationSvc.ValidateSelections(c.Request.Context(), req.ProductTypeID, req.Customizations)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type validateProductSelectionsRequest struct {
	ProductID      string                           `json:"product_id"`
	Customizations []customizationdomain.Selection `json:"customizations"`
}

// ValidateProductSelections is the storefront variant keyed by product id.
func (s *Server) ValidateProductSelections(c *gin.Context) {
	var req validateProductSelectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	productType, err := s.catalogSvc.ResolveProductType(c.Request.Context(), req.ProductID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.customizationSvc.ValidateSelections(c.Request.Context(), productType.ID, req.Customizations)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
