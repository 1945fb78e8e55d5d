package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jon4hz/logicsweep/internal/api/models"
	"github.com/jon4hz/logicsweep/internal/notify/webpush"
)

// SubscribeRequest represents the request body for push notification subscription.
type SubscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription"`
}

// WebPushHandler handles webpush-related API endpoints.
type WebPushHandler struct {
	webpush *webpush.Client
}

// NewWebPushHandler creates a new webpush API handler.
func NewWebPushHandler(webpushClient *webpush.Client) *WebPushHandler {
	return &WebPushHandler{
		webpush: webpushClient,
	}
}

// GetVAPIDKey returns the VAPID public key for client subscription.
func (h *WebPushHandler) GetVAPIDKey(c *gin.Context) {
	if h.webpush == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "webpush is not configured",
		})
		return
	}

	publicKey := h.webpush.GetPublicKey()
	if publicKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "VAPID public key not available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"publicKey": publicKey,
	})
}

// Subscribe handles push notification subscription requests.
func (h *WebPushHandler) Subscribe(c *gin.Context) {
	if h.webpush == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "webpush is not configured",
		})
		return
	}

	var subscribeReq SubscribeRequest
	if err := c.ShouldBindJSON(&subscribeReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid subscription data",
		})
		return
	}

	// Subscriptions are always bound to the session user
	user := c.MustGet("user").(*models.User)
	if user.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "no username associated with this session",
		})
		return
	}

	subscription := &webpush.Subscription{
		UserID:   user.Username,
		Endpoint: subscribeReq.Subscription.Endpoint,
		Keys: struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		}{
			P256dh: subscribeReq.Subscription.Keys.P256dh,
			Auth:   subscribeReq.Subscription.Keys.Auth,
		},
		UserAgent: c.GetHeader("User-Agent"),
	}

	if err := h.webpush.Subscribe(user.Username, subscription); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to subscribe user",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "successfully subscribed to push notifications",
		"subscription_id": subscription.ID,
	})
}

// Unsubscribe removes a push notification subscription.
func (h *WebPushHandler) Unsubscribe(c *gin.Context) {
	if h.webpush == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "webpush is not configured",
		})
		return
	}

	user := c.MustGet("user").(*models.User)

	subscriptionID := c.Query("id")
	if subscriptionID != "" {
		if err := h.webpush.UnsubscribeByID(user.Username, subscriptionID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "subscription not found",
			})
			return
		}
	} else {
		if err := h.webpush.Unsubscribe(user.Username); err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "no subscriptions found",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "successfully unsubscribed from push notifications",
	})
}

// GetSubscriptions lists the push subscriptions of the session user.
func (h *WebPushHandler) GetSubscriptions(c *gin.Context) {
	if h.webpush == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "webpush is not configured",
		})
		return
	}

	user := c.MustGet("user").(*models.User)
	subscriptions, _ := h.webpush.GetSubscriptions(user.Username)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"subscriptions": subscriptions,
	})
}

// TestNotification sends a test push notification to the session user.
func (h *WebPushHandler) TestNotification(c *gin.Context) {
	if h.webpush == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "webpush is not configured",
		})
		return
	}

	user := c.MustGet("user").(*models.User)
	if err := h.webpush.TestNotification(c.Request.Context(), user.Username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to send test notification",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "test notification sent",
	})
}
