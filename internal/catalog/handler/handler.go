package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-catalog-ingest/internal/catalog"
	"github.com/fekuna/omnipos-catalog-ingest/internal/catalog/dto"
	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	uc     catalog.UseCase
	logger logger.ZapLogger
}

func NewCatalogHandler(uc catalog.UseCase, log logger.ZapLogger) *CatalogHandler {
	return &CatalogHandler{
		uc:     uc,
		logger: log,
	}
}

// Register mounts the read-only catalog routes under /api.
func (h *CatalogHandler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/websites", h.ListWebsites)
	api.GET("/websites/:website_id", h.GetWebsite)
	api.GET("/websites/:website_id/products", h.ListWebsiteProducts)
	api.GET("/websites/:website_id/products/:sku", h.GetProductBySKU)
	api.GET("/brands", h.ListBrands)
	api.GET("/brands/:brand_id/products", h.ListBrandProducts)
	api.GET("/products/:product_id", h.GetProduct)
}

func (h *CatalogHandler) ListWebsites(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	list, err := h.uc.ListWebsites(c.Request.Context(), page)
	if err != nil {
		h.fail(c, "Failed to list websites", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetWebsite(c *gin.Context) {
	w, err := h.uc.GetWebsite(c.Request.Context(), c.Param("website_id"))
	if err != nil {
		h.fail(c, "Failed to get website", err, zap.String("website_id", c.Param("website_id")))
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *CatalogHandler) ListWebsiteProducts(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	list, err := h.uc.ListWebsiteProducts(c.Request.Context(), c.Param("website_id"), page)
	if err != nil {
		h.fail(c, "Failed to list products", err, zap.String("website_id", c.Param("website_id")))
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetProductBySKU(c *gin.Context) {
	p, err := h.uc.GetProductBySKU(c.Request.Context(), c.Param("website_id"), c.Param("sku"))
	if err != nil {
		h.fail(c, "Failed to get product", err,
			zap.String("website_id", c.Param("website_id")),
			zap.String("sku", c.Param("sku")),
		)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) ListBrands(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	list, err := h.uc.ListBrands(c.Request.Context(), page)
	if err != nil {
		h.fail(c, "Failed to list brands", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) ListBrandProducts(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	list, err := h.uc.ListBrandProducts(c.Request.Context(), c.Param("brand_id"), page)
	if err != nil {
		h.fail(c, "Failed to list products", err, zap.String("brand_id", c.Param("brand_id")))
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		h.fail(c, "Failed to get product", err, zap.String("product_id", c.Param("product_id")))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) page(c *gin.Context) (dto.Page, bool) {
	var page dto.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid paging parameters", "details": err.Error()})
		return page, false
	}
	return page, true
}

func (h *CatalogHandler) fail(c *gin.Context, msg string, err error, fields ...zap.Field) {
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	h.logger.Error(msg, append(fields, zap.Error(err))...)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
