package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const PaymentSignatureHeader = "X-Payment-Signature"

// 決済通知の本文の HMAC-SHA256（hex）を確認する。secretが空なら確認しない。
func PaymentSignature(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if secret == "" {
			return next
		}
		return func(c echo.Context) error {
			body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorJSON("invalid body"))
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			got, err := hex.DecodeString(strings.TrimSpace(c.Request().Header.Get(PaymentSignatureHeader)))
			if err != nil || len(got) == 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("invalid signature"))
			}

			if !hmac.Equal(got, SignPayment([]byte(secret), body)) {
				return c.JSON(http.StatusUnauthorized, errorJSON("invalid signature"))
			}
			return next(c)
		}
	}
}

func SignPayment(secret []byte, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
