package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/mercato-next/internal/authz"
	"github.com/mercato-next/internal/cache"
	"github.com/mercato-next/internal/config"
	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/i18n"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/repository"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey           = "request_id"
	requestIDHeader        = "X-Request-ID"
	adminIsSuperContextKey = "admin_is_super"
)

// requestLocale 在鉴权前只能依赖 Accept-Language
func requestLocale(c *gin.Context) string {
	return i18n.ResolveLocale(c.GetHeader("Accept-Language"))
}

// reject 统一的 401 拒绝
func reject(c *gin.Context, msgKey string) {
	response.Unauthorized(c, i18n.T(requestLocale(c), msgKey))
	c.Abort()
}

func listOrDefault(values, fallback []string) []string {
	if len(values) > 0 {
		return values
	}
	return fallback
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := listOrDefault(cfg.AllowedOrigins, []string{"*"})
	methodsHeader := strings.Join(listOrDefault(cfg.AllowedMethods,
		[]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}), ", ")
	headersHeader := strings.Join(listOrDefault(cfg.AllowedHeaders, []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-CSRF-Token",
	}), ", ")

	return func(c *gin.Context) {
		header := c.Writer.Header()
		origin := resolveAllowedOrigin(c.GetHeader("Origin"), allowedOrigins, cfg.AllowCredentials)
		if origin != "" {
			header.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Headers", headersHeader)
		header.Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// resolveAllowedOrigin 带凭证时通配符必须回显具体来源，浏览器拒绝 credentials + *
func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	wildcard := false
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			wildcard = true
			break
		}
	}
	switch {
	case wildcard && allowCredentials && origin != "":
		return origin
	case wildcard:
		return "*"
	case origin == "":
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID：透传上游的，没有就生成
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Set(requestIDKey, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		entry.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	if value, ok := c.Get(requestIDKey); ok {
		if requestID, ok := value.(string); ok {
			return requestID
		}
	}
	return ""
}

// bearerToken 提取 Authorization Bearer 令牌，失败时返回对应的错误消息 key
func bearerToken(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", "error.auth_header_missing"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return "", "error.auth_header_invalid"
	}
	return token, ""
}

// parseHS256 仅接受 HS256 签名的令牌，防算法替换
func parseHS256(tokenString, secret string, claims jwt.Claims) bool {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	return err == nil && token.Valid
}

// JWTAuthMiddleware 管理端 JWT 鉴权。
// 命中 Redis 的鉴权状态缓存时跳过数据库；令牌版本或吊销时间不匹配即拒绝。
func JWTAuthMiddleware(secretKey string, adminRepo repository.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			reject(c, "error.jwt_secret_missing")
			return
		}
		if adminRepo == nil {
			reject(c, "error.token_invalid")
			return
		}
		token, errKey := bearerToken(c)
		if errKey != "" {
			reject(c, errKey)
			return
		}
		claims := &service.JWTClaims{}
		if !parseHS256(token, secretKey, claims) || claims.AdminID == 0 {
			reject(c, "error.token_invalid")
			return
		}

		if cached, hit, err := cache.GetAdminAuthState(c.Request.Context(), claims.AdminID); err == nil && hit && cached != nil {
			if claims.TokenVersion != cached.TokenVersion || !issuedAfterUnix(claims.IssuedAt, cached.TokenInvalidBefore) {
				reject(c, "error.token_revoked")
				return
			}
			c.Set("admin_id", claims.AdminID)
			c.Set("username", claims.Username)
			c.Set("admin_name", adminDisplayName(cached.DisplayName, cached.Username))
			c.Set(adminIsSuperContextKey, cached.IsSuper)
			c.Next()
			return
		}

		admin, err := adminRepo.GetByID(claims.AdminID)
		if err != nil || admin == nil {
			reject(c, "error.token_invalid")
			return
		}
		if claims.TokenVersion != admin.TokenVersion || !issuedAfter(claims.IssuedAt, admin.TokenInvalidBefore) {
			reject(c, "error.token_revoked")
			return
		}
		_ = cache.SetAdminAuthState(c.Request.Context(), cache.BuildAdminAuthState(admin))

		c.Set("admin_id", claims.AdminID)
		c.Set("username", claims.Username)
		c.Set("admin_name", adminDisplayName(admin.DisplayName, admin.Username))
		c.Set(adminIsSuperContextKey, admin.IsSuper)
		c.Next()
	}
}

// adminDisplayName 拣货操作留痕优先用昵称，空时退回登录名
func adminDisplayName(displayName, username string) string {
	if strings.TrimSpace(displayName) != "" {
		return displayName
	}
	return username
}

// AdminRBACMiddleware 管理端 RBAC：超级管理员直通，其余走 casbin 判定
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			reject(c, "error.unauthorized")
			return
		}

		if isSuper, ok := c.Get(adminIsSuperContextKey); ok {
			if superValue, typeOK := isSuper.(bool); typeOK && superValue {
				c.Next()
				return
			}
		}

		adminID := contextAdminID(c)
		if adminID == 0 {
			reject(c, "error.unauthorized")
			return
		}

		resource := enforcedResource(c)
		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"admin_id", adminID,
				"error", err,
			)
			reject(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, i18n.T(requestLocale(c), "error.forbidden"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// enforcedResource 用路由模板做资源标识，参数段统一成 :id 形式
func enforcedResource(c *gin.Context) string {
	if resource := strings.TrimSpace(c.FullPath()); resource != "" {
		return resource
	}
	return c.Request.URL.Path
}

func contextAdminID(c *gin.Context) uint {
	var id int64
	switch value := c.Value("admin_id").(type) {
	case uint:
		return value
	case int:
		id = int64(value)
	case float64:
		id = int64(value)
	}
	if id <= 0 {
		return 0
	}
	return uint(id)
}

// UserJWTAuthMiddleware 买家端 JWT 鉴权，除令牌校验外还要求账号处于启用状态
func UserJWTAuthMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			reject(c, "error.jwt_secret_missing")
			return
		}
		if userRepo == nil {
			reject(c, "error.token_invalid")
			return
		}
		token, errKey := bearerToken(c)
		if errKey != "" {
			reject(c, errKey)
			return
		}
		claims := &service.UserJWTClaims{}
		if !parseHS256(token, secretKey, claims) || claims.UserID == 0 {
			reject(c, "error.token_invalid")
			return
		}

		if cached, hit, err := cache.GetUserAuthState(c.Request.Context(), claims.UserID); err == nil && hit && cached != nil {
			if !isActiveUserStatus(cached.Status) {
				reject(c, "error.user_disabled")
				return
			}
			if claims.TokenVersion != cached.TokenVersion || !issuedAfterUnix(claims.IssuedAt, cached.TokenInvalidBefore) {
				reject(c, "error.token_revoked")
				return
			}
			c.Set("user_id", claims.UserID)
			c.Set("user_email", claims.Email)
			if cached.Locale != "" {
				c.Set("locale", cached.Locale)
			}
			c.Next()
			return
		}

		user, err := userRepo.GetByID(claims.UserID)
		if err != nil || user == nil {
			reject(c, "error.token_invalid")
			return
		}
		if !isActiveUserStatus(user.Status) {
			reject(c, "error.user_disabled")
			return
		}
		if claims.TokenVersion != user.TokenVersion || !issuedAfter(claims.IssuedAt, user.TokenInvalidBefore) {
			reject(c, "error.token_revoked")
			return
		}
		_ = cache.SetUserAuthState(c.Request.Context(), cache.BuildUserAuthState(user))

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		if user.Locale != "" {
			c.Set("locale", user.Locale)
		}
		c.Next()
	}
}

// issuedAfter 令牌签发时间必须不早于吊销水位
func issuedAfter(issuedAt *jwt.NumericDate, invalidBefore *time.Time) bool {
	if invalidBefore == nil {
		return true
	}
	return issuedAt != nil && issuedAt.Time.Unix() >= invalidBefore.Unix()
}

func issuedAfterUnix(issuedAt *jwt.NumericDate, invalidBeforeUnix int64) bool {
	if invalidBeforeUnix <= 0 {
		return true
	}
	return issuedAt != nil && issuedAt.Time.Unix() >= invalidBeforeUnix
}

func isActiveUserStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.UserStatusActive
}
