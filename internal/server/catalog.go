package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
)

func (s *Server) CreateProductType(c *gin.Context) {
	var req catalogdomain.CreateProductTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.CreateProductType(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProductTypes(c *gin.Context) {
	resp, err := s.catalogSvc.ListProductTypes(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProductType(c *gin.Context) {
	resp, err := s.catalogSvc.GetProductType(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
