package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"shopcart/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"    // int64
	CtxUserRoleKey  = "user_role"  // string
	CtxUserEmailKey = "user_email" // string
)

var errInvalidToken = errors.New("invalid token")

// ID基盤が発行したトークンから取り出す購入者/管理者の情報
type identity struct {
	UserID int64
	Role   string
	Email  string
}

// Bearerトークン（HS256）を検証して identity を context に入れる。
// トークンの発行はこのサービスの外（sub=ユーザーID, role=USER/ADMIN, emailは任意）。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	secret := []byte(cfg.JWTSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			id, err := parseIdentity(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserIDKey, id.UserID)
			c.Set(CtxUserRoleKey, id.Role)
			c.Set(CtxUserEmailKey, id.Email)
			return next(c)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// "Bearer xxx" から xxx を取り出す
func bearerToken(authz string) (string, bool) {
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func parseIdentity(secret []byte, raw string) (identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return identity{}, errInvalidToken
	}

	//subは数値でも文字列でもよい
	var userID int64
	switch sub := claims["sub"].(type) {
	case float64:
		userID = int64(sub)
	case string:
		userID, err = strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return identity{}, errInvalidToken
		}
	}
	if userID <= 0 {
		return identity{}, errInvalidToken
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return identity{}, errInvalidToken
	}
	email, _ := claims["email"].(string)

	return identity{UserID: userID, Role: role, Email: email}, nil
}
