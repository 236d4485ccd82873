// Package config는 애플리케이션 설정을 관리하는 패키지입니다.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 인터페이스는 설정 값에 액세스하기 위한 메서드를 정의합니다.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	IsSet(key string) bool
	// ConfigFile은 읽어들인 설정 파일 경로를 반환합니다. 파일 없이 환경 변수만 사용한 경우 빈 문자열입니다.
	ConfigFile() string
}

// viperConfig는 viper를 사용하여 Config 인터페이스를 구현합니다.
type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string          { return strings.TrimSpace(c.v.GetString(key)) }
func (c *viperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *viperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *viperConfig) GetStringSlice(key string) []string   { return c.v.GetStringSlice(key) }
func (c *viperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }
func (c *viperConfig) ConfigFile() string                   { return c.v.ConfigFileUsed() }

// 설정 디렉토리 경로
const configDir = "configs"

// Option은 로더 동작을 변경합니다.
type Option func(v *viper.Viper) error

// WithDefaults는 기본값을 등록합니다.
func WithDefaults(defaults map[string]interface{}) Option {
	return func(v *viper.Viper) error {
		for key, value := range defaults {
			v.SetDefault(key, value)
		}
		return nil
	}
}

// WithEnvAliases는 접두사 없는 환경 변수 이름을 설정 키에 바인딩합니다.
// 앞에 있는 이름이 우선합니다.
func WithEnvAliases(aliases map[string][]string) Option {
	return func(v *viper.Viper) error {
		for key, envs := range aliases {
			args := append([]string{key}, envs...)
			if err := v.BindEnv(args...); err != nil {
				return fmt.Errorf("환경 변수 바인딩 실패 (%s): %w", key, err)
			}
		}
		return nil
	}
}

// Load는 지정된 서비스 이름에 해당하는 설정을 로드합니다.
//
// 우선순위: 환경 변수 > .env 파일 > configs/{APP_ENV}/{service}.yaml > 기본값.
// 설정 파일은 선택 사항이며, 없으면 환경 변수만으로 동작합니다.
func Load(serviceName string, opts ...Option) (Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 기본 환경은 dev
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}

	v.SetConfigName(serviceName)
	v.AddConfigPath(configPath)
	v.AddConfigPath(filepath.Join(configDir, "example"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
		}
	}

	return &viperConfig{v: v}, nil
}

// loadDotEnv는 .env 파일을 프로세스 환경에 반영합니다. 이미 설정된 환경 변수는 덮어쓰지 않습니다.
func loadDotEnv() error {
	path := os.Getenv("DOTENV_PATH")
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf(".env 로드 실패: %w", err)
	}
	return nil
}
