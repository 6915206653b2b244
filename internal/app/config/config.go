package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"techbot/internal/app/domains/entity/etdocument"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Session  SessionConfig  `mapstructure:"session"`
	Media    MediaConfig    `mapstructure:"media"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lmstfy   LmstfyConfig   `mapstructure:"lmstfy"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required,numeric"`
}

// WhatsAppConfig 聊天传输层
type WhatsAppConfig struct {
	GraphURL     string        `mapstructure:"graph_url" validate:"required,url"`
	APIVersion   string        `mapstructure:"api_version" validate:"required"`
	AccessToken  string        `mapstructure:"access_token" validate:"required"`
	VerifyToken  string        `mapstructure:"verify_token" validate:"required"`
	AppSecret    string        `mapstructure:"app_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
	EventTimeout time.Duration `mapstructure:"event_timeout"`
}

// BackendConfig 订单与身份后端
type BackendConfig struct {
	OrdersURL   string        `mapstructure:"orders_url" validate:"required,url"`
	StatusURL   string        `mapstructure:"status_url" validate:"required,url"`
	IdentityURL string        `mapstructure:"identity_url" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AuthConfig 调用身份后端的应用令牌，secret 为空时不携带
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	AppName   string        `mapstructure:"app_name"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type WorkflowConfig struct {
	PartPhotoPolicy string        `mapstructure:"part_photo_policy" validate:"omitempty,oneof=single per_part"`
	OTPMaxRetries   int           `mapstructure:"otp_max_retries" validate:"min=0"`
	ListLimit       int           `mapstructure:"list_limit" validate:"min=0,max=10"`
	DedupeWindow    time.Duration `mapstructure:"dedupe_window"`
	DocumentFormURL string        `mapstructure:"document_form_url" validate:"omitempty,url"`
	BotName         string        `mapstructure:"bot_name"`
}

// SessionConfig 会话与去重的存储方式
type SessionConfig struct {
	Store string        `mapstructure:"store" validate:"oneof=memory redis"`
	TTL   time.Duration `mapstructure:"ttl"`
}

type MediaConfig struct {
	Root string `mapstructure:"root"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LmstfyConfig 出站消息队列，Enabled 为 false 时直接调用传输层发送
type LmstfyConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Namespace   string `mapstructure:"namespace"`
	Token       string `mapstructure:"token"`
	OutboxQueue string `mapstructure:"outbox_queue"`
}

// envOverrides 部署时通过环境变量注入的配置
type envOverrides struct {
	AccessToken string `env:"TOKEN"`
	VerifyToken string `env:"MYTOKEN"`
	AppSecret   string `env:"APP_SECRET"`
	StatusURL   string `env:"BASE_URL_STATUS"`
	OrdersURL   string `env:"BASE_URL_ORDERS"`
	IdentityURL string `env:"BASE_URL_SC"`
	JWTSecret   string `env:"JWT_SECRET"`
	Port        string `env:"PORT"`
	RedisAddr   string `env:"REDIS_ADDR"`
	MySQLDSN    string `env:"MYSQL_DSN"`
	LmstfyToken string `env:"LMSTFY_TOKEN"`
}

// Load 从配置文件加载配置，再应用环境变量覆盖与默认值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadDefault 加载默认配置文件路径
func LoadDefault() (*Config, error) {
	return Load("config/config.yaml")
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.WhatsApp.AccessToken, o.AccessToken)
	set(&c.WhatsApp.VerifyToken, o.VerifyToken)
	set(&c.WhatsApp.AppSecret, o.AppSecret)
	set(&c.Backend.StatusURL, o.StatusURL)
	set(&c.Backend.OrdersURL, o.OrdersURL)
	set(&c.Backend.IdentityURL, o.IdentityURL)
	set(&c.Auth.JWTSecret, o.JWTSecret)
	set(&c.Server.Port, o.Port)
	set(&c.Redis.Addr, o.RedisAddr)
	set(&c.MySQL.DSN, o.MySQLDSN)
	set(&c.Lmstfy.Token, o.LmstfyToken)
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "techbot"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.WhatsApp.GraphURL == "" {
		c.WhatsApp.GraphURL = "https://graph.facebook.com"
	}
	if c.WhatsApp.APIVersion == "" {
		c.WhatsApp.APIVersion = "v22.0"
	}
	if c.WhatsApp.Timeout == 0 {
		c.WhatsApp.Timeout = 15 * time.Second
	}
	if c.WhatsApp.EventTimeout == 0 {
		c.WhatsApp.EventTimeout = 30 * time.Second
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 15 * time.Second
	}
	if c.Workflow.PartPhotoPolicy == "" {
		c.Workflow.PartPhotoPolicy = string(etdocument.PartPhotoSingle)
	}
	if c.Workflow.OTPMaxRetries == 0 {
		c.Workflow.OTPMaxRetries = 3
	}
	if c.Workflow.ListLimit == 0 {
		c.Workflow.ListLimit = 10
	}
	if c.Workflow.DedupeWindow == 0 {
		c.Workflow.DedupeWindow = 5 * time.Minute
	}
	if c.Session.Store == "" {
		c.Session.Store = "memory"
	}
	if c.Media.Root == "" {
		c.Media.Root = "uploads"
	}
	if c.Lmstfy.Port == 0 {
		c.Lmstfy.Port = 7777
	}
	if c.Lmstfy.OutboxQueue == "" {
		c.Lmstfy.OutboxQueue = "techbot_outbox"
	}
}

// Validate 验证配置完整性
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config %s failed on %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Session.Store == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when session store is redis")
	}
	if c.Lmstfy.Enabled {
		if c.Lmstfy.Host == "" {
			return fmt.Errorf("lmstfy host is required")
		}
		if c.Lmstfy.Token == "" {
			return fmt.Errorf("lmstfy token is required")
		}
	}
	return nil
}

// PartPhotoPolicy 解析配件照片策略
func (c *Config) PartPhotoPolicy() etdocument.PartPhotoPolicy {
	p, err := etdocument.ParsePartPhotoPolicy(c.Workflow.PartPhotoPolicy)
	if err != nil {
		return etdocument.PartPhotoSingle
	}
	return p
}
