package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"blockEditor/backend/internal/autosave"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/session"
)

type Config struct {
	Running struct {
		Port int `mapstructure:"Port"`
		// 同时处理消息的编辑会话上限
		MaxConcurrent int `mapstructure:"MaxConcurrent"`
	} `mapstructure:"Running"`
	Mysql struct {
		// "mysql" 或 "sqlite"；sqlite 只存快照，不建文档元数据
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"Mysql"`
	Redis struct {
		Addrs    []string      `mapstructure:"addrs"`
		Password string        `mapstructure:"password"`
		DraftTTL time.Duration `mapstructure:"draftTTL"`
	} `mapstructure:"Redis"`
	Kafka struct {
		Brokers    []string                        `mapstructure:"brokers"`
		Topic      string                          `mapstructure:"topic"`
		Dispatcher autosave.KafkaDispatcherOptions `mapstructure:"dispatcher"`
	} `mapstructure:"Kafka"`
	Auth struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"Auth"`
	Editor struct {
		session.Config `mapstructure:",squash"`
		Youtube        schema.YoutubeOptions `mapstructure:"Youtube"`
	} `mapstructure:"Editor"`
	Autosave autosave.Options `mapstructure:"Autosave"`
}

// Default 配置文件缺省的项保持这里的值
func Default() *Config {
	cfg := &Config{}
	cfg.Running.Port = 8082
	cfg.Running.MaxConcurrent = autosave.DefaultSemaphoreSize
	cfg.Mysql.Driver = "mysql"
	cfg.Redis.DraftTTL = 24 * time.Hour
	cfg.Kafka.Topic = "editor-content"
	cfg.Kafka.Dispatcher = autosave.DefaultKafkaDispatcherOptions()
	cfg.Editor.Youtube = schema.DefaultYoutubeOptions()
	cfg.Autosave = autosave.DefaultOptions()
	return cfg
}

// Load 先读 .env，再读 editorConfig.yaml；EDITOR_ 前缀的环境变量覆盖文件中已有的键，
// 例如 EDITOR_AUTH_SECRET
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("editorConfig")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		// 兼容从项目根目录或 backend 目录启动
		paths = []string{"./backend/config", "./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("EDITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SchemaOptions 编辑器 schema 的配置
func (c *Config) SchemaOptions() schema.Options {
	return schema.Options{Youtube: c.Editor.Youtube}
}
