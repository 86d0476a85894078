package errs

const (
	ErrorInternal       = 500000 //系统异常
	ErrorArgs           = 500001 //参数错误
	ErrorNotFound       = 500002 //记录不存在
	ErrorDiscovery      = 510001 //注册中心不可达或响应无法解析
	ErrorUnconfigured   = 510002 //注册中心存在但本地未配置的服务
	ErrorNoHealthy      = 510003 //没有 UP 状态的实例
	ErrorClientNotFound = 510004 //服务没有可用的 gRPC 客户端
	ErrorDescriptor     = 510005 //proto 描述文件加载失败
	ErrorClosed         = 510006 //组件已关闭
)
