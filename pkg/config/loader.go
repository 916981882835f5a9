package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// 支持的运行类型
const (
	RunTypeDev  = "dev"
	RunTypeTest = "test"
	RunTypeProd = "prod"
)

// Loader 通用配置加载器
type Loader struct {
	ServiceName string

	configDir  string
	runType    string
	configFile string
	defaults   map[string]any
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithConfigDir reads conf files from dir instead of the lookup chain.
func WithConfigDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.configDir = dir
	}
}

// WithRunType overrides RUN_TYPE.
func WithRunType(runType string) LoaderOption {
	return func(l *Loader) {
		l.runType = runType
	}
}

// WithDefaults sets values used when neither the file nor the environment
// provides the key. Keys use the dotted viper form, e.g. "logging.level".
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(l *Loader) {
		l.defaults = defaults
	}
}

// NewLoader 创建配置加载器
func NewLoader(serviceName string, opts ...LoaderOption) *Loader {
	l := &Loader{
		ServiceName: serviceName,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load 加载配置文件并解析到目标结构体
//
// The file is <dir>/<RUN_TYPE>.yaml. Every key can be overridden by an
// environment variable named <SERVICE>_<KEY> with dots replaced by
// underscores, e.g. MEDIATION_LOGGING_LEVEL.
func (l *Loader) Load(configStruct interface{}) error {
	runType := l.runType
	if runType == "" {
		runType = GetRunType()
	}

	// 验证运行类型
	if runType != RunTypeTest && runType != RunTypeProd && runType != RunTypeDev {
		return fmt.Errorf("invalid RUN_TYPE: %s, must be 'test', 'prod', or 'dev'", runType)
	}

	// 构建配置文件路径
	configDir := l.configDir
	if configDir == "" {
		configDir = l.getConfigDir()
	}
	configFile := filepath.Join(configDir, fmt.Sprintf("%s.yaml", runType))

	// 检查配置文件是否存在
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", configFile)
	}

	// 设置viper配置
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	for key, value := range l.defaults {
		v.SetDefault(key, value)
	}

	// 设置环境变量前缀
	v.SetEnvPrefix(l.ServiceName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	// 解析到配置结构体
	if err := v.Unmarshal(configStruct); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	l.runType = runType
	l.configFile = configFile
	return nil
}

// ConfigFile returns the file read by the last successful Load.
func (l *Loader) ConfigFile() string {
	return l.configFile
}

// RunType returns the run type used by the last successful Load.
func (l *Loader) RunType() string {
	return l.runType
}

// getConfigDir 获取配置文件目录
func (l *Loader) getConfigDir() string {
	// 优先级：
	// 1. CONFIG_PATH环境变量
	// 2. 相对于可执行文件的conf目录
	// 3. 相对于当前工作目录的conf目录

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return filepath.Join(configPath, "conf")
	}

	// 获取可执行文件路径
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		confPath := filepath.Join(exeDir, "conf")
		if _, err := os.Stat(confPath); err == nil {
			return confPath
		}
	}

	// 默认使用当前工作目录
	return "conf"
}

// GetRunType 获取当前运行类型
func GetRunType() string {
	runType := strings.ToLower(strings.TrimSpace(os.Getenv("RUN_TYPE")))
	if runType == "" {
		return RunTypeTest
	}
	return runType
}

// IsProduction 判断是否为生产环境
func IsProduction() bool {
	return GetRunType() == RunTypeProd
}

// IsTest 判断是否为测试环境
func IsTest() bool {
	return GetRunType() == RunTypeTest
}
