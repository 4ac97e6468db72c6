package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/services"
	"bookline-inbox/internal/transport/httpdto"
	"bookline-inbox/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token shape issued by the identity service.
// Subject carries the user id; Role the default role for this session.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware resolves the viewer from a bearer token. Streaming
// endpoints may pass the token as a query parameter instead, since
// EventSource cannot set headers.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			token = c.Query("token")
		}
		viewer, err := parseViewer(token, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
			c.Abort()
			return
		}

		ctx := services.WithViewerContext(c.Request.Context(), viewer)
		ctx = context.WithValue(ctx, logger.ViewerIdKey, strconv.FormatInt(viewer.ID, 10))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func parseViewer(token, secret string) (services.Viewer, error) {
	if token == "" {
		return services.Viewer{}, fmt.Errorf("missing token")
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return services.Viewer{}, fmt.Errorf("invalid token: %w", err)
	}

	viewerID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || viewerID <= 0 {
		return services.Viewer{}, fmt.Errorf("invalid subject")
	}
	role := message.Role(claims.Role)
	if !message.ValidRole(claims.Role) {
		role = message.RoleClient
	}
	return services.Viewer{ID: viewerID, DefaultRole: role}, nil
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
