package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// botPatterns are known crawler User-Agent substrings (lowercase).
var botPatterns = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "facebookexternalhit",
	"twitterbot", "rogerbot", "linkedinbot", "embedly",
	"quora link preview", "showyoubot", "outbrain",
	"pinterest", "applebot", "semrushbot", "ahrefsbot",
	"mj12bot", "dotbot", "petalbot", "bytespider",
}

// BotFilter sets c.Set("is_bot", true) for known crawler user agents.
// Proxy handlers still serve results to bots but skip analytics
// recording so crawler traffic does not pollute the query history.
func BotFilter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ua := strings.ToLower(c.Request.UserAgent())
		if ua == "" || isBot(ua) {
			c.Set("is_bot", true)
		}
		c.Next()
	}
}

// IsBot reports whether BotFilter flagged the current request.
func IsBot(c *gin.Context) bool {
	return c.GetBool("is_bot")
}

func isBot(ua string) bool {
	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
