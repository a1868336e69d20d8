package middleware

import (
  "fmt"
  "net/http"
  "os"
  "strings"
  "github.com/gin-gonic/gin"
  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "github.com/medremind/medremind-backend/internal/logger"
  "github.com/medremind/medremind-backend/internal/requestdata"
)

type AuthMiddleware struct {
  log       *logger.Logger
  jwtSecret []byte
}

func NewAuthMiddleware(log *logger.Logger) (*AuthMiddleware, error) {
  middlewareLogger := log.With("Middleware", "AuthMiddleware")
  secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
  if secret == "" {
    return nil, fmt.Errorf("missing JWT_SECRET")
  }
  return &AuthMiddleware{log: middlewareLogger, jwtSecret: []byte(secret)}, nil
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractToken(c)
    if tokenString == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
      return
    }
    userID, err := am.parseUserID(tokenString)
    if err != nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
      return
    }
    if userID == uuid.Nil {
      c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
      return
    }
    ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
      TokenString: tokenString,
      UserID:      userID,
    })
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}

func (am *AuthMiddleware) parseUserID(tokenString string) (uuid.UUID, error) {
  token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
    }
    return am.jwtSecret, nil
  }, jwt.WithValidMethods([]string{"HS256"}))
  if err != nil || !token.Valid {
    return uuid.Nil, fmt.Errorf("invalid token")
  }
  claims, ok := token.Claims.(jwt.MapClaims)
  if !ok {
    return uuid.Nil, fmt.Errorf("invalid claims")
  }
  sub, err := claims.GetSubject()
  if err != nil || sub == "" {
    return uuid.Nil, fmt.Errorf("missing subject")
  }
  userID, err := uuid.Parse(sub)
  if err != nil {
    return uuid.Nil, fmt.Errorf("subject is not a user id")
  }
  return userID, nil
}

func extractToken(c *gin.Context) string {
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  if qToken := c.Query("token"); qToken != "" {
    return qToken
  }
  return ""
}
