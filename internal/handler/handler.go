package handler

import (
	"context"
	"net/http"

	"github.com/code-sigs/eureka-connector/pkg/errs"
	"github.com/code-sigs/eureka-connector/pkg/trace"
	"github.com/gin-gonic/gin"
)

// TraceHeader 请求头中的 trace id
const TraceHeader = "X-Trace-ID"

type StandardResponse[T any] struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// ContextInjector 定义上下文注入函数类型
type ContextInjector func(c *gin.Context, ctx context.Context) context.Context

// HandlerFunc 返回值会包装成 StandardResponse
type HandlerFunc func(ctx context.Context, c *gin.Context) (any, error)

// DefaultContextInjector 读取请求头中的 trace id，没有则生成
func DefaultContextInjector(c *gin.Context, ctx context.Context) context.Context {
	if traceID := c.GetHeader(TraceHeader); traceID != "" {
		return trace.WithTraceID(ctx, traceID)
	}
	return trace.WithNewTraceID(ctx)
}

// Wrap 把 HandlerFunc 适配成 gin.HandlerFunc
// 带业务码的错误返回 200 + code，其他错误返回 500
func Wrap(fn HandlerFunc, ctxInjector ContextInjector) gin.HandlerFunc {
	if ctxInjector == nil {
		ctxInjector = DefaultContextInjector
	}
	return func(c *gin.Context) {
		ctx := ctxInjector(c, c.Request.Context())
		c.Header(TraceHeader, trace.GetTraceID(ctx))

		data, err := fn(ctx, c)
		if err != nil {
			if code := errs.CodeOf(err); code != 0 {
				c.JSON(http.StatusOK, StandardResponse[any]{Code: int32(code), Message: err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, StandardResponse[any]{Code: 500, Message: err.Error()})
			return
		}
		c.JSON(http.StatusOK, StandardResponse[any]{Code: 0, Message: "ok", Data: data})
	}
}
