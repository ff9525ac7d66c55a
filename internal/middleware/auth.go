package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"reportflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// jwtSecret is set once at startup via Init.
var jwtSecret []byte

// permDB holds the database reference for permission queries.
var permDB *gorm.DB

// Init wires the middleware package with the signing secret and the database
// used for permission lookups.
func Init(secret []byte, db *gorm.DB) {
	jwtSecret = secret
	permDB = db
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// extractToken pulls the access token from the cookie, falling back to the
// Authorization header.
func extractToken(c *gin.Context) (string, bool) {
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr == nil && tokenString != "" {
		return tokenString, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// setIdentity stores the authenticated identity on the gin context.
func setIdentity(c *gin.Context, claims jwt.MapClaims) {
	c.Set("userID", claims["sub"])
	if role, ok := claims["role"].(string); ok {
		c.Set("userRole", role)
	}
	if dept, ok := claims["department"].(string); ok {
		c.Set("userDepartment", dept)
	}
}

// RequireRole validates the JWT and checks the user's role against the
// allowed list.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		claims, err := parseClaims(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if userRole == role {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// --- Permission-based middleware ---

// permCacheEntry stores cached permission codes for a role with TTL
type permCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

var (
	permCache    sync.Map // roleName -> permCacheEntry
	permCacheTTL = 5 * time.Minute
)

// RequirePermission validates the JWT and checks if the user's role carries
// all of the required permission codes.
func RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		claims, err := parseClaims(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		setIdentity(c, claims)

		userPerms, err := getPermissionsForRole(userRole)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		permSet := make(map[string]bool, len(userPerms))
		for _, p := range userPerms {
			permSet[p] = true
		}
		for _, required := range requiredPerms {
			if !permSet[required] {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}

// getPermissionsForRole returns cached or DB-fetched permission codes for a role name
func getPermissionsForRole(roleName string) ([]string, error) {
	if entry, ok := permCache.Load(roleName); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	if permDB == nil {
		return nil, fmt.Errorf("permission middleware not initialized")
	}

	var codes []string
	err := permDB.Raw(`
		SELECT p.code FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		INNER JOIN roles r ON r.id = rp.role_id
		WHERE r.name = ?
	`, roleName).Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}

	permCache.Store(roleName, permCacheEntry{
		codes:     codes,
		expiresAt: time.Now().Add(permCacheTTL),
	})

	return codes, nil
}

// GetPermissionsForRoleFromDB exposes permission fetching for handlers (e.g., /me endpoint)
func GetPermissionsForRoleFromDB(roleName string) ([]string, error) {
	return getPermissionsForRole(roleName)
}

// ClearPermissionCache removes cached permissions for a specific role (or all roles if empty)
func ClearPermissionCache(roleName string) {
	if roleName == "" {
		permCache.Range(func(key, _ interface{}) bool {
			permCache.Delete(key)
			return true
		})
	} else {
		permCache.Delete(roleName)
	}
}
