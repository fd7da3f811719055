package modelbind

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config 是可以从环境变量加载的配置
type Config struct {
	Prefix          string `env:"MODELBIND_PREFIX"`
	MaxModelErrors  int    `env:"MODELBIND_MAX_MODEL_ERRORS" envDefault:"200"`
	MaxBodySize     int64  `env:"MODELBIND_MAX_BODY_SIZE" envDefault:"2097152"`
	MultipartMemory int64  `env:"MODELBIND_MULTIPART_MEMORY" envDefault:"8388608"`
	SkipValidation  bool   `env:"MODELBIND_SKIP_VALIDATION"`
	SafeMode        bool   `env:"MODELBIND_SAFE_MODE"`
}

// LoadConfig 从环境变量解析 Config
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("modelbind: load config: %w", err)
	}
	return cfg, nil
}

// Options 把 Config 转换为 Option 列表。SafeMode 是全局开关，需要调用方自行设置。
func (c Config) Options() []Option {
	opts := []Option{
		WithMaxModelErrors(c.MaxModelErrors),
		WithMaxBodySize(c.MaxBodySize),
		WithMultipartLimit(c.MultipartMemory),
	}
	if c.Prefix != "" {
		opts = append(opts, WithPrefix(c.Prefix))
	}
	if c.SkipValidation {
		opts = append(opts, SkipValidation())
	}
	return opts
}
