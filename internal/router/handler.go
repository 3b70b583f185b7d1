package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/global"
)

func Banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Roots to Farm Fresh Market API",
		"version": Version,
	})
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, global.ErrorResponse("Route not found", nil))
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := global.GetDefaultTimer()
	defer cancel()

	body := gin.H{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339), "database": "Connected"}
	if err := h.Database.Ping(ctx); err != nil {
		log.WithError(err).Warn("Health check: database unreachable")
		body["status"] = "DEGRADED"
		body["database"] = "Disconnected"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// paramID parses the ObjectID path parameter name, answering 400 on failure.
func paramID(c *gin.Context, name string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid id", []global.ValidationError{
			{Field: name, Message: "must be a 24 character hex id", Code: "invalid_format"},
		}))
		return bson.ObjectID{}, false
	}
	return id, true
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}
