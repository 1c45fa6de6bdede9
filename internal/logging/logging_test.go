package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelprint/storefront/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LogConfig{Level: "DEBUG", Format: "text"}, &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	_, isText := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)

	logger = NewWithOutput(config.LogConfig{Level: "bogus", Format: "json"}, &buf)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LogConfig{Level: "info", Format: "json"}, &buf)

	engine := gin.New()
	engine.Use(RequestLogger(logger))
	engine.GET("/missing", func(c *gin.Context) {
		c.Header(RequestIDHeader, "rid-1")
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request rejected", entry["msg"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "/missing", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, "rid-1", entry["request_id"])
}
