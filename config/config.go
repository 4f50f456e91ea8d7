package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Personal PersonalConfig `mapstructure:"personal"`
	Demo     DemoConfig     `mapstructure:"demo"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分钟
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	Driver string        `mapstructure:"driver"` // redis | database | memory
	TTL    time.Duration `mapstructure:"ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig 课程目录与 Excel 导入配置
type CatalogConfig struct {
	ExcelDir        string            `mapstructure:"excel_dir"`
	HeaderRow       int               `mapstructure:"header_row"`
	BatchSize       int               `mapstructure:"batch_size"`
	AutoImport      bool              `mapstructure:"auto_import"`
	FixedSemester   string            `mapstructure:"fixed_semester"` // 老师新增/删除课程所在学期
	DepartmentNames map[string]string `mapstructure:"department_names"`
	Buildings       map[string]string `mapstructure:"buildings"` // 教室首字母 → 大楼名称（生成地图连结）
}

// RequiredRule 必修规则：课程名关键字 + 可选系所代码
type RequiredRule struct {
	Keyword        string `mapstructure:"keyword"`
	DepartmentCode string `mapstructure:"department_code"`
}

// PersonalConfig 个人课表配置
type PersonalConfig struct {
	Semester      string         `mapstructure:"semester"`
	ClassGroup    string         `mapstructure:"class_group"`
	RequiredRules []RequiredRule `mapstructure:"required_rules"`
	SemesterStart string         `mapstructure:"semester_start"` // 开学日，YYYY-MM-DD（ICS 导出，各课取其后第一个对应星期）
	Weeks         int            `mapstructure:"weeks"`
	Timezone      string         `mapstructure:"timezone"`
}

// DemoAccount 演示账号
type DemoAccount struct {
	Role        string `mapstructure:"role"` // teacher | student
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	DisplayName string `mapstructure:"display_name"`
	StudentID   string `mapstructure:"student_id"`
}

// DemoConfig 演示模式配置
type DemoConfig struct {
	SeedAccounts    bool          `mapstructure:"seed_accounts"`
	AutoLogin       bool          `mapstructure:"auto_login"`
	StudentUsername string        `mapstructure:"student_username"`
	TeacherUsername string        `mapstructure:"teacher_username"`
	Accounts        []DemoAccount `mapstructure:"accounts"`
}

// Enabled 是否需要补齐演示账号
func (d *DemoConfig) Enabled() bool {
	return d.SeedAccounts || d.AutoLogin
}

// DefaultRequiredRules 默认必修规则（规则表顺序即补齐顺序）
func DefaultRequiredRules() []RequiredRule {
	return []RequiredRule{
		{Keyword: "系統分析"},
		{Keyword: "研究概論", DepartmentCode: "22140"},
	}
}

// DefaultDepartmentNames 系所代码 → 中文系所名
func DefaultDepartmentNames() map[string]string {
	return map[string]string{
		"22140": "資訊管理系",
		"22160": "資訊管理系碩士班",
		"11140": "護理系",
		"21140": "健康事業管理系",
		"24120": "二年制長期照護系",
		"13140": "高齡健康照護系",
		"31140": "嬰幼兒保育系",
		"25140": "語言治療與聽力學系",
		"23140": "休閒產業與健康促進系",
		"32140": "運動保健系",
		"33140": "生死與健康心理諮商系",
	}
}

// DefaultBuildings 教室代码首字母 → 大楼
func DefaultBuildings() map[string]string {
	return map[string]string{
		"F": "國立臺北護理健康大學學思樓",
		"S": "國立臺北護理健康大學科技大樓",
		"B": "國立臺北護理健康大學親仁樓",
		"G": "國立臺北護理健康大學校本部",
	}
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 20<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "course_catalog")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Taipei")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "12h")

	v.SetDefault("session.driver", "redis")
	v.SetDefault("session.ttl", "336h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("catalog.excel_dir", ".")
	v.SetDefault("catalog.header_row", 5)
	v.SetDefault("catalog.batch_size", 300)
	v.SetDefault("catalog.auto_import", false)
	v.SetDefault("catalog.fixed_semester", "1141")
	v.SetDefault("catalog.department_names", DefaultDepartmentNames())
	v.SetDefault("catalog.buildings", DefaultBuildings())

	v.SetDefault("personal.semester", "1141")
	v.SetDefault("personal.class_group", "A0")
	v.SetDefault("personal.semester_start", "2025-09-08")
	v.SetDefault("personal.weeks", 18)
	v.SetDefault("personal.timezone", "Asia/Taipei")

	v.SetDefault("demo.seed_accounts", false)
	v.SetDefault("demo.auto_login", false)
	v.SetDefault("demo.student_username", "ben")
	v.SetDefault("demo.teacher_username", "dora")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("COURSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// viper 会将 map 键转为小写，教室首字母统一还原为大写
	buildings := make(map[string]string, len(cfg.Catalog.Buildings))
	for k, v := range cfg.Catalog.Buildings {
		buildings[strings.ToUpper(k)] = v
	}
	cfg.Catalog.Buildings = buildings

	// 切片类默认值无法经由 SetDefault 合并结构体列表，这里补齐
	if len(cfg.Personal.RequiredRules) == 0 {
		cfg.Personal.RequiredRules = DefaultRequiredRules()
	}
	if len(cfg.Demo.Accounts) == 0 {
		cfg.Demo.Accounts = []DemoAccount{
			{Role: "teacher", Username: cfg.Demo.TeacherUsername, Password: "a", DisplayName: "中岳"},
			{Role: "student", Username: cfg.Demo.StudentUsername, Password: "a", DisplayName: "童國原", StudentID: "122214132"},
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Session.Driver {
	case "redis", "database", "memory":
	default:
		return fmt.Errorf("配置校验失败: session.driver 仅支持 redis / database / memory，实际 %q", c.Session.Driver)
	}
	for i, r := range c.Personal.RequiredRules {
		if strings.TrimSpace(r.Keyword) == "" {
			return fmt.Errorf("配置校验失败: personal.required_rules[%d].keyword 不能为空", i)
		}
	}
	if _, err := time.Parse("2006-01-02", c.Personal.SemesterStart); err != nil {
		return fmt.Errorf("配置校验失败: personal.semester_start 格式须为 YYYY-MM-DD，实际 %q", c.Personal.SemesterStart)
	}
	if c.Catalog.BatchSize <= 0 {
		return fmt.Errorf("配置校验失败: catalog.batch_size 必须 > 0")
	}
	if c.Catalog.HeaderRow < 1 {
		return fmt.Errorf("配置校验失败: catalog.header_row 必须 >= 1")
	}
	return nil
}
