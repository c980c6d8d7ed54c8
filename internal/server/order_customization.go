package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ordercustomizationdomain "github.com/keepsakelabs/keepsake/internal/ordercustomization/domain"
)

// SaveOrderItemCustomizations runs the intake pipeline for one order line
// item. Rule violations come back as 422 with the violation list; the
// request had no side effects in that case.
func (s *Server) SaveOrderItemCustomizations(c *gin.Context) {
	var req ordercustomizationdomain.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrderID = c.Param("orderId")
	req.OrderItemID = c.Param("itemId")

	result, err := s.orderCustomizationSvc.SaveCustomizations(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !result.Valid {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ListOrderItemCustomizations(c *gin.Context) {
	resp, err := s.orderCustomizationSvc.ListByOrderItem(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
