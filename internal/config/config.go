package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"bombarena/pkg/core"
)

const (
	ProtoTCP = "tcp"
	ProtoKCP = "kcp"
	ProtoWS  = "ws"
)

// 环境变量名
const (
	EnvAddr        = "BOMB_ADDR"
	EnvHTTPAddr    = "BOMB_HTTP_ADDR"
	EnvProto       = "BOMB_PROTO"
	EnvTPS         = "BOMB_TPS"
	EnvAI          = "BOMB_AI"
	EnvMatchConfig = "BOMB_MATCH_CONFIG"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogJSON     = "LOG_JSON"
	EnvJWTSecret   = "JWT_SECRET"
)

// Config 服务器配置
type Config struct {
	Addr      string // 游戏连接监听地址（tcp/kcp）
	HTTPAddr  string // websocket 与房间统计的 HTTP 地址，空表示不开启
	Proto     string
	TPS       int // <=0 表示不限速
	LogLevel  string
	LogJSON   bool
	JWTSecret string
	EnableAI  bool   // 开局时用脚本 AI 填满空槽位
	MatchFile string // YAML 对局调参文件
	Match     core.Config
}

// Default 默认配置
func Default() Config {
	return Config{
		Addr:     ":8080",
		HTTPAddr: ":8081",
		Proto:    ProtoTCP,
		LogLevel: "info",
		Match:    core.DefaultConfig(),
	}
}

// Load 依次应用：默认值 → YAML 调参文件 → .env/环境变量 → 命令行参数
func Load(args []string) (Config, error) {
	set := flag.NewFlagSet("bombarena", flag.ContinueOnError)
	var (
		addr      = set.String("addr", "", "游戏连接监听地址")
		httpAddr  = set.String("http", "", "HTTP/websocket 监听地址")
		proto     = set.String("proto", "", "传输协议 tcp|kcp|ws")
		tps       = set.Int("tps", 0, "每秒 tick 数，<=0 不限速")
		logLevel  = set.String("log-level", "", "日志级别")
		logJSON   = set.Bool("log-json", false, "JSON 格式日志")
		ai        = set.Bool("ai", false, "用 AI 填充空槽位")
		matchFile = set.String("match", "", "YAML 对局调参文件")
		envFile   = set.String("env", ".env", "环境变量文件")
	)
	if err := set.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("加载 %s 失败: %w", *envFile, err)
	}

	cfg := Default()
	cfg.MatchFile = firstNonEmpty(*matchFile, os.Getenv(EnvMatchConfig))
	if cfg.MatchFile != "" {
		if err := LoadMatchFile(cfg.MatchFile, &cfg.Match); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	set.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "proto":
			cfg.Proto = *proto
		case "tps":
			cfg.TPS = *tps
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-json":
			cfg.LogJSON = *logJSON
		case "ai":
			cfg.EnableAI = *ai
		}
	})
	cfg.Proto = strings.ToLower(cfg.Proto)
	return cfg, cfg.Validate()
}

// LoadMatchFile 用 YAML 文件覆盖对局参数，文件中缺省的字段保持原值
func LoadMatchFile(path string, dst *core.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取调参文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("解析调参文件 %s 失败: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v, ok := os.LookupEnv(EnvHTTPAddr); ok {
		c.HTTPAddr = v
	}
	if v := os.Getenv(EnvProto); v != "" {
		c.Proto = v
	}
	if v := os.Getenv(EnvTPS); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s 不是整数: %w", EnvTPS, err)
		}
		c.TPS = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s 不是布尔值: %w", EnvLogJSON, err)
		}
		c.LogJSON = b
	}
	if v := os.Getenv(EnvAI); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s 不是布尔值: %w", EnvAI, err)
		}
		c.EnableAI = b
	}
	c.JWTSecret = os.Getenv(EnvJWTSecret)
	return nil
}

// Validate 检查取值范围
func (c Config) Validate() error {
	switch c.Proto {
	case ProtoTCP, ProtoKCP, ProtoWS:
	default:
		return fmt.Errorf("不支持的协议 %q", c.Proto)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("日志级别: %w", err)
	}
	if c.Proto == ProtoWS && c.HTTPAddr == "" {
		return errors.New("ws 协议需要 HTTP 监听地址")
	}
	return nil
}

// ConfigureLogging 按配置设置全局 logrus
func (c Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
