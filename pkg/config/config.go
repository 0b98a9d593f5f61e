package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration yaml可解析的时长，支持 "30s" / "5m" 写法
type Duration time.Duration

// UnmarshalYAML 实现yaml解码
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("无效的时长 %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std 转回标准库时长
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	Database struct {
		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgres"`
	} `yaml:"database"`

	NATS struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"nats"`

	API struct {
		Port         string   `yaml:"port"`
		ReadTimeout  Duration `yaml:"read_timeout"`
		WriteTimeout Duration `yaml:"write_timeout"`
	} `yaml:"api"`

	Market struct {
		TickMinInterval Duration `yaml:"tick_min_interval"`
		TickMaxInterval Duration `yaml:"tick_max_interval"`
		MaxCatchUp      int      `yaml:"max_catch_up"`
		ReversionRate   float64  `yaml:"reversion_rate"`
		EventChance     float64  `yaml:"event_chance"`
	} `yaml:"market"`

	Rules struct {
		MaxOrdersPerMinute int      `yaml:"max_orders_per_minute"`
		MaxOrdersPerHour   int      `yaml:"max_orders_per_hour"`
		OrderCooldown      Duration `yaml:"order_cooldown"`
		MinHoldingPeriod   Duration `yaml:"min_holding_period"`
		PositionCapPercent float64  `yaml:"position_cap_percent"`
		MaxImpactPercent   float64  `yaml:"max_impact_percent"`
	} `yaml:"rules"`

	Simulation struct {
		CycleSpec    string `yaml:"cycle_spec"`    // 行情与机器人周期
		DividendSpec string `yaml:"dividend_spec"` // 每日分红
		DelistSpec   string `yaml:"delist_spec"`   // 每周退市检查
	} `yaml:"simulation"`
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 环境变量覆盖
	overrideFromEnv(&config)

	return &config, nil
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	// 应用名称
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}

	// 环境
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Postgres.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		var port int
		fmt.Sscanf(env, "%d", &port)
		if port > 0 {
			config.Database.Postgres.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.Postgres.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Postgres.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.Postgres.DBName = env
	}

	// NATS配置
	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}
	if env := os.Getenv("NATS_CLIENT_ID"); env != "" {
		config.NATS.ClientID = env
	}

	// API配置
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}
