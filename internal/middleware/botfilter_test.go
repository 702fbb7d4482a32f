package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/search-analytics/internal/middleware"
)

func newBotRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.BotFilter())
	r.GET("/search", func(c *gin.Context) {
		if middleware.IsBot(c) {
			c.String(http.StatusOK, "bot")
			return
		}
		c.String(http.StatusOK, "human")
	})
	return r
}

func serveWithUA(r *gin.Engine, ua string) string {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search", http.NoBody)
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	r.ServeHTTP(w, req)
	return w.Body.String()
}

func TestBotFilter_AllowsNormalUA(t *testing.T) {
	r := newBotRouter()
	got := serveWithUA(r, "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	if got != "human" {
		t.Fatalf("expected 'human' for normal UA, got %q", got)
	}
}

func TestBotFilter_FlagsGooglebot(t *testing.T) {
	r := newBotRouter()
	got := serveWithUA(r, "Googlebot/2.1 (+http://www.google.com/bot.html)")
	if got != "bot" {
		t.Fatalf("expected 'bot' for Googlebot, got %q", got)
	}
}

func TestBotFilter_FlagsMissingUA(t *testing.T) {
	r := newBotRouter()
	got := serveWithUA(r, "")
	if got != "bot" {
		t.Fatalf("expected 'bot' for missing UA, got %q", got)
	}
}
