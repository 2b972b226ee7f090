package handler

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/ip-profiler/internal/geoip"
	"github.com/gin-gonic/gin"
	"github.com/mileusna/useragent"
	"go.uber.org/zap"
)

type GeoHandler struct {
	geo    *geoip.Client
	logger *zap.Logger
}

func NewGeoHandler(geo *geoip.Client, logger *zap.Logger) *GeoHandler {
	return &GeoHandler{
		geo:    geo,
		logger: logger,
	}
}

type UAInfo struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Device  string `json:"device"`
	CPU     string `json:"cpu"`
}

type GeoResponse struct {
	geoip.Result
	UA UAInfo `json:"ua"`
}

// Probe godoc
// @Summary Resolve caller network and device attributes
// @Description Geolocate the caller IP and parse its user agent; the browser feeds the result into the visit payload
// @Tags geo
// @Produce json
// @Success 200 {object} GeoResponse
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/geo [get]
func (h *GeoHandler) Probe(c *gin.Context) {
	ip := clientIP(c)
	ua := parseUA(c.Request.UserAgent())

	result, err := h.geo.Lookup(c.Request.Context(), ip)
	if err != nil {
		h.logger.Warn("Geo lookup failed", zap.String("ip", ip), zap.Error(err))
		// Деградированный ответ: IP известен, остальное нет
		c.JSON(http.StatusBadGateway, gin.H{
			"ip":       ip,
			"city":     "Unknown",
			"region":   "Unknown",
			"country":  "Unknown",
			"isp":      "Unknown",
			"lat":      0,
			"lon":      0,
			"timezone": "UTC",
			"ua":       ua,
			"error":    true,
		})
		return
	}

	c.JSON(http.StatusOK, GeoResponse{Result: *result, UA: ua})
}

// clientIP берёт первый адрес из X-Forwarded-For, затем X-Real-IP,
// затем адрес соединения
func clientIP(c *gin.Context) string {
	ip := c.GetHeader("X-Forwarded-For")
	if ip == "" {
		ip = c.GetHeader("X-Real-IP")
	}
	if ip == "" {
		ip = c.ClientIP()
	}
	if idx := strings.Index(ip, ","); idx != -1 {
		ip = strings.TrimSpace(ip[:idx])
	}
	return ip
}

func parseUA(uaString string) UAInfo {
	ua := useragent.Parse(uaString)

	deviceType := "Desktop"
	switch {
	case ua.Mobile:
		deviceType = "Mobile"
	case ua.Tablet:
		deviceType = "Tablet"
	case ua.Bot:
		deviceType = "Bot"
	}

	device := strings.TrimSpace(deviceType + " " + ua.Device)

	return UAInfo{
		Browser: strings.TrimSpace(orUnknown(ua.Name) + " " + ua.Version),
		OS:      strings.TrimSpace(orUnknown(ua.OS) + " " + ua.OSVersion),
		Device:  device,
		CPU:     "Unknown", // архитектура CPU из UA-строки надёжно не извлекается
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
