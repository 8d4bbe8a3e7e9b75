package api

import (
	"errors"
	"net/http"

	"MotoPrice/internal/config"
	"MotoPrice/internal/model"
	"MotoPrice/internal/refdata"
	"MotoPrice/internal/regression"
	"MotoPrice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PredictHandler 价格预测接口
type PredictHandler struct {
	predictionService *service.PredictionService
	heuristic         *service.HeuristicPredictor
	cfg               *config.Config
	logger            *logrus.Logger
}

// NewPredictHandler 创建 PredictHandler。olsModel 可为 nil（未训练时仅启发式可用）
func NewPredictHandler(refs *refdata.Holder, olsModel *regression.OLS, cfg *config.Config, logger *logrus.Logger) *PredictHandler {
	h := &PredictHandler{
		heuristic: service.NewHeuristicPredictor(logger),
		cfg:       cfg,
		logger:    logger,
	}
	if olsModel != nil {
		h.predictionService = service.NewPredictionService(refs, olsModel, cfg, logger)
	}
	return h
}

type predictRequest struct {
	service.PredictionInput
	UseHeuristic bool `json:"use_heuristic,omitempty"` // 强制走启发式，回归模型不可用时的降级开关
}

// Predict 单条帖子价格预测
// POST /api/predict
func (h *PredictHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体不是合法JSON: " + err.Error()})
		return
	}

	if req.UseHeuristic || h.predictionService == nil {
		currentYear := h.cfg.Training.CurrentYear
		if h.predictionService != nil {
			currentYear = h.predictionService.CurrentYear()
		}
		result, err := h.heuristic.Predict(req.PredictionInput, currentYear)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	result, err := h.predictionService.Predict(req.PredictionInput)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrInvalidInput) ||
			errors.Is(err, model.ErrParse) ||
			errors.Is(err, model.ErrLookup) {
			status = http.StatusBadRequest
		}
		if status == http.StatusBadRequest {
			h.logger.WithError(err).Warn("预测请求被拒绝")
		} else {
			h.logger.WithError(err).Error("预测失败")
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
