package connector

import (
	"github.com/code-sigs/eureka-connector/pkg/errs"
)

// 连接器对外暴露的错误，使用 errors.Is 判断
var (
	ErrDiscovery           = errs.WithCode(errs.New("registry discovery failed"), errs.ErrorDiscovery)
	ErrUnconfiguredService = errs.WithCode(errs.New("service is not configured"), errs.ErrorUnconfigured)
	ErrNoHealthyEndpoint   = errs.WithCode(errs.New("no healthy endpoint"), errs.ErrorNoHealthy)
	ErrClientNotFound      = errs.WithCode(errs.New("client not found"), errs.ErrorClientNotFound)
	ErrManagerClosed       = errs.WithCode(errs.New("connection manager is closed"), errs.ErrorClosed)
	ErrDescriptor          = errs.WithCode(errs.New("proto descriptor unavailable"), errs.ErrorDescriptor)
	ErrMethodNotFound      = errs.WithCode(errs.New("method not found"), errs.ErrorNotFound)
)
