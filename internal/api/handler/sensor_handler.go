package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// SensorHandler 传感器与读数 HTTP 处理器
type SensorHandler struct {
	errorResponder
	sensorSvc service.SensorService
}

// NewSensorHandler 创建 SensorHandler
func NewSensorHandler(sensorSvc service.SensorService, production bool) *SensorHandler {
	return &SensorHandler{errorResponder: errorResponder{production: production}, sensorSvc: sensorSvc}
}

// ── 传感器 ──

// ListSensors 传感器列表
// GET /api/v1/sensors
func (h *SensorHandler) ListSensors(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SensorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	sensors, err := h.sensorSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, gin.H{"list": sensors})
}

// GetSensor 传感器详情
// GET /api/v1/sensors/:id
func (h *SensorHandler) GetSensor(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "传感器ID")
	if !ok {
		return
	}

	sensor, err := h.sensorSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, sensor)
}

// CreateSensor 创建传感器
// POST /api/v1/sensors
func (h *SensorHandler) CreateSensor(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	sensor, err := h.sensorSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.Created(c, sensor)
}

// UpdateSensor 更新传感器
// PATCH /api/v1/sensors/:id
func (h *SensorHandler) UpdateSensor(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "传感器ID")
	if !ok {
		return
	}

	var req dto.UpdateSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	sensor, err := h.sensorSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, sensor)
}

// DeleteSensor 删除传感器
// DELETE /api/v1/sensors/:id
func (h *SensorHandler) DeleteSensor(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "传感器ID")
	if !ok {
		return
	}

	if err := h.sensorSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "传感器已删除"})
}

// ListSensorReadings 某传感器的读数
// GET /api/v1/sensors/:id/readings
func (h *SensorHandler) ListSensorReadings(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "传感器ID")
	if !ok {
		return
	}
	h.listReadings(c, id)
}

// CreateSensorReading 为某传感器写入读数，路径参数优先
// POST /api/v1/sensors/:id/readings
func (h *SensorHandler) CreateSensorReading(c *gin.Context) {
	id, ok := MustGetUUIDParam(c, "id", "传感器ID")
	if !ok {
		return
	}
	h.createReading(c, id)
}

// ── 读数 ──

// ListReadings 读数列表（传感器 + 时间范围）
// GET /api/v1/sensor-readings
func (h *SensorHandler) ListReadings(c *gin.Context) {
	h.listReadings(c, "")
}

func (h *SensorHandler) listReadings(c *gin.Context, sensorID string) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ReadingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}
	if sensorID != "" {
		req.SensorID = sensorID
	}

	readings, err := h.sensorSvc.ListReadings(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, gin.H{"list": readings})
}

// RecentReadings 最近读数
// GET /api/v1/sensor-readings/recent
func (h *SensorHandler) RecentReadings(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	readings, err := h.sensorSvc.RecentReadings(c.Request.Context(), caller)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, gin.H{"list": readings})
}

// GetReading 读数详情
// GET /api/v1/sensor-readings/:id
func (h *SensorHandler) GetReading(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "读数ID")
	if !ok {
		return
	}

	reading, err := h.sensorSvc.GetReading(c.Request.Context(), caller, id)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, reading)
}

// CreateReading 写入读数
// POST /api/v1/sensor-readings
func (h *SensorHandler) CreateReading(c *gin.Context) {
	h.createReading(c, "")
}

func (h *SensorHandler) createReading(c *gin.Context, sensorID string) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}
	if sensorID != "" {
		req.SensorID = sensorID
	}

	reading, err := h.sensorSvc.CreateReading(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.Created(c, reading)
}

// UpdateReading 更新读数
// PATCH /api/v1/sensor-readings/:id
func (h *SensorHandler) UpdateReading(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "读数ID")
	if !ok {
		return
	}

	var req dto.UpdateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	reading, err := h.sensorSvc.UpdateReading(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, reading)
}

// DeleteReading 删除读数
// DELETE /api/v1/sensor-readings/:id
func (h *SensorHandler) DeleteReading(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "读数ID")
	if !ok {
		return
	}

	if err := h.sensorSvc.DeleteReading(c.Request.Context(), caller, id); err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "读数已删除"})
}

// ReadingStats 单个传感器的读数统计
// GET /api/v1/sensor-readings/stats/:sensorId
func (h *SensorHandler) ReadingStats(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	sensorID, ok := MustGetUUIDParam(c, "sensorId", "传感器ID")
	if !ok {
		return
	}

	stats, err := h.sensorSvc.ReadingStats(c.Request.Context(), caller, sensorID)
	if err != nil {
		h.handleSensorError(c, err)
		return
	}

	response.OK(c, stats)
}

// handleSensorError 统一处理传感器模块业务错误
func (h *SensorHandler) handleSensorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSensorNotFound):
		response.NotFound(c, 16001, "传感器不存在")
	case errors.Is(err, service.ErrReadingNotFound):
		response.NotFound(c, 16002, "传感器读数不存在")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 14001, "项目不存在")
	default:
		h.handleCommonError(c, err)
	}
}
