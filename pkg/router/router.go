package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/code-sigs/eureka-connector/internal/handler"
	"github.com/code-sigs/eureka-connector/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type routeEntry struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

type Router struct {
	routes      []routeEntry
	middlewares []gin.HandlerFunc // 用户自定义中间件
	group       []*RouterGroup
}

type RouterGroup struct {
	name     string
	handlers []gin.HandlerFunc
	routes   []routeEntry
}

// New 创建一个新的 Router 实例
func New() *Router {
	return &Router{
		routes: []routeEntry{},
	}
}

// Use 添加用户自定义 gin 中间件
func (r *Router) Use(mw ...gin.HandlerFunc) *Router {
	r.middlewares = append(r.middlewares, mw...)
	return r
}

func (r *Router) Group(name string, handlers ...gin.HandlerFunc) *RouterGroup {
	group := &RouterGroup{
		name:     name,
		handlers: handlers,
		routes:   []routeEntry{},
	}
	r.group = append(r.group, group)
	return group
}

func (r *Router) GET(path string, fn handler.HandlerFunc) {
	r.routes = append(r.routes, routeEntry{method: http.MethodGet, path: path, handler: handler.Wrap(fn, nil)})
}

func (r *Router) POST(path string, fn handler.HandlerFunc) {
	r.routes = append(r.routes, routeEntry{method: http.MethodPost, path: path, handler: handler.Wrap(fn, nil)})
}

func (g *RouterGroup) GET(path string, fn handler.HandlerFunc) {
	g.routes = append(g.routes, routeEntry{method: http.MethodGet, path: path, handler: handler.Wrap(fn, nil)})
}

func (g *RouterGroup) POST(path string, fn handler.HandlerFunc) {
	g.routes = append(g.routes, routeEntry{method: http.MethodPost, path: path, handler: handler.Wrap(fn, nil)})
}

// Engine 构建 gin.Engine，挂载 cors、recovery、访问日志和全部路由
func (r *Router) Engine(isDebug bool) *gin.Engine {
	if !isDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // 如果 AllowCredentials: true，请指定域名
		AllowMethods:     []string{"GET", "POST", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{handler.TraceHeader},
		AllowCredentials: false, // 为 true 时，不允许 * 出现在 AllowOrigins、AllowHeaders 中
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(gin.Recovery(), accessLog())
	for _, mw := range r.middlewares {
		engine.Use(mw)
	}
	for _, route := range r.routes {
		engine.Handle(route.method, route.path, route.handler)
	}
	for _, group := range r.group {
		groupEngine := engine.Group(group.name, group.handlers...)
		for _, route := range group.routes {
			groupEngine.Handle(route.method, route.path, route.handler)
		}
	}
	return engine
}

// Run 启动 HTTP 服务，ctx 结束后优雅关闭
func (r *Router) Run(ctx context.Context, addr string, isDebug bool) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: r.Engine(isDebug),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof(ctx, "admin server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugw(c.Request.Context(), "admin request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"traceID", c.Writer.Header().Get(handler.TraceHeader))
	}
}
