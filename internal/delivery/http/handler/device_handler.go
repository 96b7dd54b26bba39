package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"iot-device-manager/internal/export"
	"iot-device-manager/internal/metrics"
	"iot-device-manager/internal/usecase/device"
	"iot-device-manager/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	exportFormatXLSX = "xlsx"
	exportFormatPDF  = "pdf"
)

type DeviceHandler struct {
	service *device.Service
}

func NewDeviceHandler(service *device.Service) *DeviceHandler {
	return &DeviceHandler{service: service}
}

func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.POST("", h.CreateDevice)
		devices.GET("", h.ListDevices)
		devices.GET("/statistics", h.GetStatistics)
		devices.GET("/export", h.Export)
		devices.POST("/batch", h.CreateBatch)
		devices.GET("/:id", h.GetDevice)
		devices.PUT("/:id", h.UpdateDevice)
		devices.DELETE("/:id", h.DeleteDevice)
		devices.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req device.CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, msgInvalidBody, err)
		return
	}

	created, err := h.service.CreateDevice(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Device created successfully", created)
}

func (h *DeviceHandler) CreateBatch(c *gin.Context) {
	var req device.BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, msgInvalidBody, err)
		return
	}

	created, err := h.service.CreateBatch(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, fmt.Sprintf("%d devices created successfully", len(created)), created)
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	found, err := h.service.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device retrieved successfully", found)
}

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	var filter device.DeviceFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, msgInvalidQuery, err)
		return
	}

	devices, err := h.service.ListDevices(c.Request.Context(), &filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved successfully", devices)
}

func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var req device.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, msgInvalidBody, err)
		return
	}

	updated, err := h.service.UpdateDevice(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device updated successfully", updated)
}

func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	deleted, err := h.service.DeleteDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if !deleted {
		utils.ErrorResponse(c, http.StatusNotFound, msgDeviceNotFound)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device deleted successfully", device.DeleteResponse{Deleted: true})
}

func (h *DeviceHandler) UpdateStatus(c *gin.Context) {
	var req device.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, msgInvalidBody, err)
		return
	}

	updated, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device status updated successfully", updated)
}

func (h *DeviceHandler) GetStatistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved successfully", stats)
}

// Export streams the filtered device list as a spreadsheet or the statistics as a PDF report.
func (h *DeviceHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", exportFormatXLSX)
	start := time.Now()

	var (
		buf         bytes.Buffer
		contentType string
		err         error
	)
	switch format {
	case exportFormatXLSX:
		var filter device.DeviceFilterRequest
		if bindErr := c.ShouldBindQuery(&filter); bindErr != nil {
			respondBindError(c, msgInvalidQuery, bindErr)
			return
		}
		devices, listErr := h.service.ExportDevices(c.Request.Context(), &filter)
		if listErr != nil {
			respondWithError(c, listErr)
			return
		}
		contentType = export.ContentTypeXLSX
		err = export.WriteDevicesXLSX(&buf, devices)
	case exportFormatPDF:
		stats, statsErr := h.service.ExportStatistics(c.Request.Context())
		if statsErr != nil {
			respondWithError(c, statsErr)
			return
		}
		contentType = export.ContentTypePDF
		err = export.WriteStatisticsPDF(&buf, stats, start)
	default:
		utils.ErrorResponse(c, http.StatusBadRequest, "format must be one of xlsx, pdf")
		return
	}

	metrics.ObserveExport(format, err, time.Since(start))
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("devices-%s.%s", start.UTC().Format("20060102-150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
