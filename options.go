package modelbind

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type config struct {
	// 绑定
	prefix         string
	sources        []Source
	binder         ModelBinder
	metadata       *MetadataProvider
	maxModelErrors int
	logger         *zap.Logger

	// 校验
	validator      *validator.Validate
	skipValidation bool

	// Handler
	noEnvelope  bool
	errorFunc   ErrorFunc
	errorHook   func(ctx context.Context, err error)
	maxBodySize int64
}

type Option func(*config)

func newConfig(opts ...Option) *config {
	cfg := &config{
		sources:        Sources,
		metadata:       DefaultMetadataProvider,
		maxModelErrors: DefaultMaxModelErrors,
		validator:      Validator,
		errorFunc:      Error,
		errorHook:      ErrorHook,
		maxBodySize:    2 << 20,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.binder == nil {
		cfg.binder = NewBinder(DefaultRegistry)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return cfg
}

// WithPrefix 设置根模型的名称前缀，例如 "pair" 对应 pair.Key / pair.Value
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithSources 设置自定义的数据源链（将覆盖默认链）
func WithSources(s ...Source) Option {
	return func(c *config) {
		c.sources = s
	}
}

// AddSources 在默认数据源链之前添加自定义数据源
func AddSources(s ...Source) Option {
	return func(c *config) {
		sources := make([]Source, 0, len(s)+len(c.sources))
		sources = append(sources, s...)
		c.sources = append(sources, c.sources...)
	}
}

// WithMultipartLimit 设置解析 Multipart 表单时的最大内存限制 (字节)。
// 会创建一个新的 FormSource 实例替换掉链中的实例，避免修改全局变量。
func WithMultipartLimit(limit int64) Option {
	return func(c *config) {
		// 创建副本以避免修改原始切片（如果它是共享的）
		sources := make([]Source, len(c.sources))
		copy(sources, c.sources)

		found := false
		for i, s := range sources {
			if _, ok := s.(*FormSource); ok {
				sources[i] = &FormSource{MaxMemory: limit}
				found = true
				break
			}
		}
		if !found {
			sources = append(sources, &FormSource{MaxMemory: limit})
		}
		c.sources = sources
	}
}

// WithRegistry 使用自定义 Registry 构建默认的根绑定器链
func WithRegistry(r *Registry) Option {
	return func(c *config) {
		c.binder = NewBinder(r)
	}
}

// WithBinder 直接替换根绑定器
func WithBinder(b ModelBinder) Option {
	return func(c *config) {
		c.binder = b
	}
}

// WithMetadataProvider 设置元数据提供者
func WithMetadataProvider(p *MetadataProvider) Option {
	return func(c *config) {
		c.metadata = p
	}
}

// WithMaxModelErrors 设置 ModelState 允许记录的最大错误数
func WithMaxModelErrors(n int) Option {
	return func(c *config) {
		c.maxModelErrors = n
	}
}

// WithLogger 设置绑定过程使用的日志
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithValidator 设置自定义的 Validator 实例
func WithValidator(v *validator.Validate) Option {
	return func(c *config) {
		c.validator = v
	}
}

// SkipValidation 只绑定，不执行校验
func SkipValidation() Option {
	return func(c *config) {
		c.skipValidation = true
	}
}

// NoEnvelope 指示 Handler 不要使用标准的 {code, msg, data} 封口
func NoEnvelope() Option {
	return func(c *config) {
		c.noEnvelope = true
	}
}

// WithErrorFunc 设置该 Handler 专属的错误处理器
func WithErrorFunc(handler ErrorFunc) Option {
	return func(c *config) {
		c.errorFunc = handler
	}
}

// WithErrorHook 设置该 Handler 专属的错误处理 Hook
func WithErrorHook(hook func(ctx context.Context, err error)) Option {
	return func(c *config) {
		c.errorHook = hook
	}
}

// WithMaxBodySize 限制请求体 (Body) 的最大字节数。
// 超过限制时将返回 413 Request Entity Too Large。
func WithMaxBodySize(maxBytes int64) Option {
	return func(c *config) {
		c.maxBodySize = maxBytes
	}
}
