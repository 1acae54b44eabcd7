package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SessionHeader はクライアントが指定するセッションIDのヘッダー
const SessionHeader = "X-Session-ID"

// SetupMiddleware は共通ミドルウェアを設定する
func SetupMiddleware(e *echo.Echo) {
	// リクエストID
	e.Use(middleware.RequestID())

	// 構造化リクエストログ（zap）
	e.Use(RequestLogger())

	// パニックリカバリー
	e.Use(middleware.Recover())

	// リクエストボディは小さなJSONのみ
	e.Use(middleware.BodyLimit("64K"))

	// CORS
	// デモ画面から2つのセッションを並べて操作するので X-Session-ID を許可する
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{echo.GET, echo.HEAD, echo.POST},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, SessionHeader},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))
}
