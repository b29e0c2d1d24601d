package http

import "net/http"

// corsHeaders — фиксированный набор разрешающих CORS-заголовков.
// Триггеры дергаются из браузерных админок и мобильных webview,
// поэтому политика намеренно открытая.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
	"Access-Control-Allow-Headers": "authorization, apikey, content-type, x-backfill-secret",
}

// corsMiddleware ставит CORS-заголовки на каждый ответ
// и отвечает на pre-flight (OPTIONS) без дальнейшей маршрутизации.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range corsHeaders {
			w.Header().Set(k, v)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
