package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"pixeldesk/service"
)

const (
	authCookie   = "auth-token"
	ctxUserID    = "userID"
	ctxIsAdmin   = "isAdmin"
	ctxCronCall  = "cronCall"
	bearerPrefix = "Bearer "
)

// Claims are the session token claims; the subject is the user ID
type Claims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 session token for userID
func IssueToken(secret []byte, userID string, admin bool, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// tokenFromRequest reads the session cookie, then the Authorization header
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(authCookie); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	return ""
}

// authenticate rejects requests without a valid session and records the caller's activity
func authenticate(secret []byte, users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			abortWithError(c, service.ErrUnauthorized)
			return
		}

		claims, err := parseToken(secret, raw)
		if err != nil {
			log.WithError(err).Debug("Rejected session token")
			abortWithError(c, service.ErrUnauthorized)
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxIsAdmin, claims.Admin)

		if users != nil {
			if err := users.RecordActivity(c.Request.Context(), claims.Subject); err != nil {
				log.WithFields(log.Fields{
					"userID": claims.Subject,
					"error":  err,
				}).Warn("Failed to record user activity")
			}
		}

		c.Next()
	}
}

func requireAdmin(c *gin.Context) {
	if !c.GetBool(ctxIsAdmin) {
		abortWithError(c, service.Forbidden("需要管理员权限"))
		return
	}
	c.Next()
}

// cronOrAdmin accepts the cron secret as a bearer token, or an admin session
func cronOrAdmin(secret []byte, cronSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if cronSecret != "" && strings.HasPrefix(header, bearerPrefix) {
			presented := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			if subtle.ConstantTimeCompare([]byte(presented), []byte(cronSecret)) == 1 {
				c.Set(ctxCronCall, true)
				c.Next()
				return
			}
		}

		raw := tokenFromRequest(c)
		if raw == "" {
			abortWithError(c, service.ErrUnauthorized)
			return
		}
		claims, err := parseToken(secret, raw)
		if err != nil {
			abortWithError(c, service.ErrUnauthorized)
			return
		}
		if !claims.Admin {
			abortWithError(c, service.Forbidden("需要管理员权限"))
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxIsAdmin, true)
		c.Next()
	}
}

// targetUser resolves which user a request acts on. Acting on someone else needs admin.
func targetUser(c *gin.Context, requested string) (string, error) {
	caller := c.GetString(ctxUserID)
	if requested == "" || requested == caller {
		return caller, nil
	}
	if c.GetBool(ctxIsAdmin) {
		return requested, nil
	}
	return "", service.Forbidden("无权操作其他用户的数据")
}

func abortWithError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	c.AbortWithStatusJSON(status, body)
}

var statusByCode = map[service.ErrorCode]int{
	service.CodeNotFound:          http.StatusNotFound,
	service.CodeInsufficientFunds: http.StatusBadRequest,
	service.CodeAlreadyBound:      http.StatusBadRequest,
	service.CodeValidation:        http.StatusBadRequest,
	service.CodeUnauthorized:      http.StatusUnauthorized,
	service.CodeForbidden:         http.StatusForbidden,
	service.CodeRateLimited:       http.StatusTooManyRequests,
}

// errorResponse maps a service error to a status and { "error": ... } body.
// Details of typed errors are merged into the body.
func errorResponse(err error) (int, gin.H) {
	if errors.Is(err, service.ErrSweepInProgress) {
		return http.StatusConflict, gin.H{"error": "Sweep already in progress"}
	}

	appErr, ok := service.AsAppError(err)
	if !ok {
		log.WithError(err).Error("Unhandled error in HTTP handler")
		return http.StatusInternalServerError, gin.H{"error": "Internal server error"}
	}

	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := gin.H{}
	for k, v := range appErr.Details {
		body[k] = v
	}
	body["error"] = appErr.Message
	return status, body
}
