// Package metrics описывает метрики Prometheus сервиса NESI.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CategoryCacheRequests обращения к кешу категорий по результату hit/miss.
	CategoryCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nesi_category_cache_requests_total",
		Help: "Category cache lookups partitioned by result.",
	}, []string{"result"})

	// HTTPRequests обработанные HTTP-запросы.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nesi_http_requests_total",
		Help: "HTTP requests partitioned by route pattern, method and status code.",
	}, []string{"route", "method", "code"})
)

// ObserveCategoryCache учитывает обращение к кешу категорий.
func ObserveCategoryCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CategoryCacheRequests.WithLabelValues(result).Inc()
}

// Middleware считает запросы по шаблону маршрута chi, чтобы id в пути не раздували метку.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
	})
}
