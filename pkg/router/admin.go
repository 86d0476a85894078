package router

import (
	"context"
	"time"

	"github.com/code-sigs/eureka-connector/pkg/connector"
	"github.com/code-sigs/eureka-connector/pkg/errs"
	"github.com/gin-gonic/gin"
)

// AdminSource 管理接口读取的数据，*connector.Connector 满足该接口
type AdminSource interface {
	Snapshot() *connector.Snapshot
	Bindings() []connector.Binding
	Refresh(ctx context.Context) error
}

// ServiceView 单个服务的快照和绑定
type ServiceView struct {
	Name      string               `json:"name"`
	Endpoints []connector.Endpoint `json:"endpoints"`
	Binding   *connector.Binding   `json:"binding,omitempty"`
}

// RegisterAdmin 在 /admin 下注册调试接口
func RegisterAdmin(r *Router, src AdminSource) {
	r.GET("/healthz", func(ctx context.Context, c *gin.Context) (any, error) {
		return gin.H{"time": time.Now().UTC()}, nil
	})

	g := r.Group("/admin")
	g.GET("/snapshot", func(ctx context.Context, c *gin.Context) (any, error) {
		return src.Snapshot(), nil
	})
	g.GET("/bindings", func(ctx context.Context, c *gin.Context) (any, error) {
		return src.Bindings(), nil
	})
	g.GET("/services/:name", func(ctx context.Context, c *gin.Context) (any, error) {
		name := c.Param("name")
		view := ServiceView{Name: name, Endpoints: src.Snapshot().Services[name]}
		for _, b := range src.Bindings() {
			if b.Service == name {
				view.Binding = &b
				break
			}
		}
		if len(view.Endpoints) == 0 && view.Binding == nil {
			return nil, errs.WithCode(errs.Wrapf(connector.ErrClientNotFound, "service %s", name), errs.ErrorNotFound)
		}
		return view, nil
	})
	g.POST("/refresh", func(ctx context.Context, c *gin.Context) (any, error) {
		if err := src.Refresh(ctx); err != nil {
			return nil, err
		}
		return src.Snapshot(), nil
	})
}
