package api

import (
	"net/http"

	"MotoPrice/internal/config"
	"MotoPrice/internal/refdata"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SyncHandler 参考数据重载接口
type SyncHandler struct {
	holder *refdata.Holder
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSyncHandler 创建 SyncHandler
func NewSyncHandler(holder *refdata.Holder, cfg *config.Config, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{holder: holder, cfg: cfg, logger: logger}
}

// ReloadRefData 从磁盘重新加载三张参考表并原子替换。
// 失败时旧表继续服务，进行中的请求不受影响。
// POST /sync/refdata
func (h *SyncHandler) ReloadRefData(c *gin.Context) {
	store, err := refdata.Load(&h.cfg.Data, h.logger)
	if err != nil {
		h.logger.WithError(err).Error("参考数据重载失败, 沿用旧表")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.holder.Swap(store)

	models, countries, provinces := store.Sizes()
	c.JSON(http.StatusOK, gin.H{
		"message":             "参考数据重载成功",
		"model_ref_prices":    models,
		"country_multipliers": countries,
		"province_scoli":      provinces,
	})
}
