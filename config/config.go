package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Extract ExtractConfig `mapstructure:"extract"`
	Compose ComposeConfig `mapstructure:"compose"`
	Store   StoreConfig   `mapstructure:"store"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	FontTypes    []string `mapstructure:"font_types"`
}

// ExtractConfig 版片提取参数
type ExtractConfig struct {
	MinPieceSize  int     `mapstructure:"min_piece_size"`
	EpsilonRatio  float64 `mapstructure:"epsilon_ratio"`
	DenoiseKernel int     `mapstructure:"denoise_kernel"`
	MaxConcurrent int     `mapstructure:"max_concurrent"`
	QueueTimeout  int     `mapstructure:"queue_timeout"`
}

// ComposeConfig 合成画布参数，宽高必须与前端预览画布一致
type ComposeConfig struct {
	CanvasWidth  int    `mapstructure:"canvas_width"`
	CanvasHeight int    `mapstructure:"canvas_height"`
	MaxCanvas    int    `mapstructure:"max_canvas"`
	ExportDir    string `mapstructure:"export_dir"`
	DownloadName string `mapstructure:"download_name"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Load 从 YAML 文件加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New 使用默认配置路径加载配置
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		// 如果加载失败，返回默认配置
		return Default()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("upload.max_size", d.Upload.MaxSize)
	v.SetDefault("upload.allowed_types", d.Upload.AllowedTypes)
	v.SetDefault("upload.font_types", d.Upload.FontTypes)

	v.SetDefault("extract.min_piece_size", d.Extract.MinPieceSize)
	v.SetDefault("extract.epsilon_ratio", d.Extract.EpsilonRatio)
	v.SetDefault("extract.denoise_kernel", d.Extract.DenoiseKernel)
	v.SetDefault("extract.max_concurrent", d.Extract.MaxConcurrent)
	v.SetDefault("extract.queue_timeout", d.Extract.QueueTimeout)

	v.SetDefault("compose.canvas_width", d.Compose.CanvasWidth)
	v.SetDefault("compose.canvas_height", d.Compose.CanvasHeight)
	v.SetDefault("compose.max_canvas", d.Compose.MaxCanvas)
	v.SetDefault("compose.export_dir", d.Compose.ExportDir)
	v.SetDefault("compose.download_name", d.Compose.DownloadName)

	v.SetDefault("store.path", d.Store.Path)
}

// Default 内置默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:      10 * 1024 * 1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg"},
			FontTypes:    []string{"font/ttf", "font/otf", "application/octet-stream", "application/x-font-ttf"},
		},
		Extract: ExtractConfig{
			MinPieceSize:  50,
			EpsilonRatio:  0.01,
			DenoiseKernel: 0,
			MaxConcurrent: 1,
			QueueTimeout:  30,
		},
		Compose: ComposeConfig{
			CanvasWidth:  600,
			CanvasHeight: 400,
			MaxCanvas:    8192,
			ExportDir:    "",
			DownloadName: "pieza_editada.png",
		},
		Store: StoreConfig{
			Path: "./data/moldes.db",
		},
	}
}
