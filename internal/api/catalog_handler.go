package api

import (
	"errors"
	"net/http"
	"strconv"

	"MotoPrice/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CatalogHandler 车型目录查询接口
type CatalogHandler struct {
	catalogRepo repository.CatalogRepository
	logger      *logrus.Logger
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(db *gorm.DB, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogRepo: repository.NewCatalogRepository(db),
		logger:      logger,
	}
}

// Test 健康检查
// GET /api/test
func (h *CatalogHandler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "MotoPrice API 运行中"})
}

// ListBrands 品牌列表
// GET /api/brands
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	brands, err := h.catalogRepo.ListBrands(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListBrands failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// ListModels 某品牌下车型列表
// GET /api/models/:brand
func (h *CatalogHandler) ListModels(c *gin.Context) {
	brand := c.Param("brand")
	if brand == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand is required"})
		return
	}
	models, err := h.catalogRepo.ListModels(c.Request.Context(), brand)
	if err != nil {
		h.logger.WithError(err).Error("ListModels failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"brand": brand, "models": models})
}

// ListVariants 某车型下版本列表
// GET /api/variants/:brand/:model
func (h *CatalogHandler) ListVariants(c *gin.Context) {
	brand := c.Param("brand")
	modelName := c.Param("model")
	if brand == "" || modelName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand and model are required"})
		return
	}
	variants, err := h.catalogRepo.ListVariants(c.Request.Context(), brand, modelName)
	if err != nil {
		h.logger.WithError(err).Error("ListVariants failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"brand": brand, "model": modelName, "variants": variants})
}

// GetDetail 车辆详情
// GET /api/detail/:brand/:model?variant=ABS
func (h *CatalogHandler) GetDetail(c *gin.Context) {
	brand := c.Param("brand")
	modelName := c.Param("model")
	if brand == "" || modelName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand and model are required"})
		return
	}
	bike, err := h.catalogRepo.GetDetail(c.Request.Context(), brand, modelName, c.Query("variant"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "motorbike not found"})
			return
		}
		h.logger.WithError(err).Error("GetDetail failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bike)
}

// Search 目录模糊搜索
// GET /api/search?q=sh+mode&limit=20
func (h *CatalogHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := h.catalogRepo.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.logger.WithError(err).Error("Search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}
