// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// CriteriaSessionCookieName は検索条件セッションIDを保持するCookieの名前。
const CriteriaSessionCookieName = "criteria_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// criteriaSessionContextKey はリクエストコンテキストに検索条件セッションIDを格納するためのキー。
var criteriaSessionContextKey = contextKey("criteria_session")

// presentedSessionContextKey はリクエストが有効なセッションCookieを持っていたことを示すキー。
// このリクエストで発行したIDとは区別する。
var presentedSessionContextKey = contextKey("criteria_session_presented")

// CookieConfig はミドルウェアが発行するCookieの共通設定。
type CookieConfig struct {
	Secure bool
	Domain string
	MaxAge int // 秒
}

// NewCriteriaSessionMiddleware は検索条件セッションIDをCookieから読み取り、
// リクエストコンテキストに注入するミドルウェアを返す。
// Cookieがない、またはUUIDとして不正な場合は新しいIDを発行してCookieを設定する。
// ログインは不要で、IDはブラウザ単位の検索条件の保存にのみ使う。
func NewCriteriaSessionMiddleware(config CookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := ""
			if cookie, err := r.Cookie(CriteriaSessionCookieName); err == nil {
				if parsed, err := uuid.Parse(cookie.Value); err == nil {
					id = parsed.String()
					ctx = context.WithValue(ctx, presentedSessionContextKey, true)
				}
			}

			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CriteriaSessionCookieName,
					Value:    id,
					Path:     "/",
					Domain:   config.Domain,
					MaxAge:   config.MaxAge,
					HttpOnly: true,
					Secure:   config.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(ContextWithCriteriaSessionID(ctx, id)))
		})
	}
}

// CriteriaSessionIDFromContext はリクエストコンテキストから検索条件セッションIDを取得する。
// 検索条件セッションミドルウェアを通過したリクエストでのみ有効。
func CriteriaSessionIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(criteriaSessionContextKey).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("criteria session ID not found in context")
	}
	return id, nil
}

// ContextWithCriteriaSessionID はコンテキストに検索条件セッションIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithCriteriaSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, criteriaSessionContextKey, id)
}

// presentedSessionID はリクエストのCookieで送られてきたセッションIDを返す。
// ミドルウェアがこのリクエストのために発行したIDは返さない。
func presentedSessionID(ctx context.Context) (string, bool) {
	if presented, _ := ctx.Value(presentedSessionContextKey).(bool); !presented {
		return "", false
	}
	id, err := CriteriaSessionIDFromContext(ctx)
	return id, err == nil
}
