package api

import (
	"net/http"
	"strconv"

	"MotoPrice/internal/model"
	"MotoPrice/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListingHandler 原始帖子查询接口
type ListingHandler struct {
	listingRepo repository.ListingRepository
	logger      *logrus.Logger
}

// NewListingHandler 创建 ListingHandler
func NewListingHandler(db *gorm.DB, logger *logrus.Logger) *ListingHandler {
	return &ListingHandler{
		listingRepo: repository.NewListingRepository(db),
		logger:      logger,
	}
}

// ListListings 帖子列表
// GET /api/listings?brand=Honda&model=SH&source=chotot&page=1&page_size=20
func (h *ListingHandler) ListListings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.ListingFilter{
		Brand:  c.Query("brand"),
		Model:  c.Query("model"),
		Source: model.ListingSource(c.Query("source")),
	}

	listings, total, err := h.listingRepo.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListListings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"listings":  listings,
	})
}

// Stats 帖子总量
// GET /api/listings/stats
func (h *ListingHandler) Stats(c *gin.Context) {
	total, err := h.listingRepo.CountAll(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_listings": total})
}
