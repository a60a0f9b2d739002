package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"scrolla/internal/middleware"
	"scrolla/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "scrolla-api"
	tokenAudience = "scrolla-client"

	wsTicketPrefix    = "ws_ticket:"
	wsTicketTTL       = 30 * time.Second
	tokenBlacklistKey = "blacklist:"
)

var (
	errNoCredentials = models.NewUnauthorizedError("Authorization required")
	errInvalidTicket = models.NewUnauthorizedError("Invalid or expired WebSocket ticket")
	errInvalidToken  = models.NewUnauthorizedError("Invalid or expired token")
	errRevokedToken  = models.NewUnauthorizedError("Token has been revoked")
)

// AuthRequired rejects requests without a valid bearer token (or, on
// websocket routes, a single-use ticket).
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := s.authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		setUser(c, userID)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when credentials are present and lets
// anonymous requests through. A bad bearer token degrades to anonymous; a bad
// websocket ticket is rejected.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := s.authenticate(c)
		switch {
		case err == nil:
			setUser(c, userID)
		case errors.Is(err, errInvalidTicket):
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, userID))
}

func (s *Server) authenticate(c *fiber.Ctx) (uint, error) {
	isWSPath := strings.HasPrefix(c.Path(), "/api/ws/")

	if ticket := c.Query("ticket"); ticket != "" && isWSPath {
		return s.consumeWSTicket(c.UserContext(), ticket)
	}

	tokenString := ""
	if scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " "); ok && scheme == "Bearer" {
		tokenString = strings.TrimSpace(token)
	}
	// Tokens in query strings end up in logs; websocket clients use tickets.
	if tokenString == "" && !isWSPath {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		return 0, errNoCredentials
	}

	claims, err := s.parseToken(tokenString)
	if err != nil {
		return 0, err
	}
	if s.isRevoked(c.UserContext(), claims) {
		return 0, errRevokedToken
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, errInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, models.NewUnauthorizedError("Invalid user ID in token")
	}
	return uint(userID), nil
}

func (s *Server) parseToken(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errInvalidToken
	}
	return claims, nil
}

func (s *Server) isRevoked(ctx context.Context, claims jwt.MapClaims) bool {
	jti, _ := claims["jti"].(string)
	if jti == "" || s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, tokenBlacklistKey+jti).Result()
	return err == nil && n > 0
}

// consumeWSTicket resolves and deletes a ticket in one step so it cannot be
// replayed.
func (s *Server) consumeWSTicket(ctx context.Context, ticket string) (uint, error) {
	if s.redis == nil {
		return 0, errInvalidTicket
	}
	raw, err := s.redis.GetDel(ctx, wsTicketPrefix+ticket).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "ws ticket lookup failed", "error", err)
		}
		return 0, errInvalidTicket
	}
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || userID == 0 {
		return 0, errInvalidTicket
	}
	return uint(userID), nil
}

// currentUserID returns the authenticated caller, or 0 for anonymous requests.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}
