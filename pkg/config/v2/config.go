package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/navikt/nada-seatable/pkg/seatable"
)

const (
	defaultExtension = "yaml"
	defaultTagName   = "yaml"
)

type Binder interface {
	Bind(v *viper.Viper) error
}

type Loader interface {
	Load(name, path, envPrefix string, binder Binder) (Config, error)
}

type Config struct {
	SeaTable SeaTable `yaml:"seatable"`
	Server   Server   `yaml:"server"`
	Postgres Postgres `yaml:"postgres"`

	LogLevel           string `yaml:"log_level"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
	Debug              bool   `yaml:"debug"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SeaTable, validation.Required),
		validation.Field(&c.Server, validation.Required),
		validation.Field(&c.Postgres),
		validation.Field(&c.LogLevel, validation.Required, validation.By(logLevel)),
		validation.Field(&c.HTTPTimeoutSeconds, validation.Required, validation.Min(1)),
	)
}

func logLevel(value interface{}) error {
	s, _ := value.(string)

	_, err := zerolog.ParseLevel(s)
	if err != nil {
		return fmt.Errorf("unknown log level %q", s)
	}

	return nil
}

// SeaTable holds the credentials the nodes use. Only one base is served
// per process.
type SeaTable struct {
	Environment string `yaml:"environment"`
	ServerURL   string `yaml:"server_url"`
	APIToken    string `yaml:"api_token"`
	Timezone    string `yaml:"timezone"`
}

func (s SeaTable) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Environment, validation.Required, validation.In(seatable.EnvironmentCloudHosted, seatable.EnvironmentSelfHosted)),
		validation.Field(&s.ServerURL, validation.When(s.Environment == seatable.EnvironmentSelfHosted, validation.Required), is.URL),
		validation.Field(&s.APIToken, validation.Required),
		validation.Field(&s.Timezone, validation.By(timezone)),
	)
}

func timezone(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	_, err := time.LoadLocation(s)
	if err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}

	return nil
}

func (s SeaTable) Credentials() seatable.Credentials {
	return seatable.Credentials{
		Environment: s.Environment,
		ServerURL:   s.ServerURL,
		APIToken:    s.APIToken,
		Timezone:    s.Timezone,
	}
}

// Postgres is optional; without a host trigger cursors are kept in memory.
type Postgres struct {
	UserName      string                `yaml:"user_name"`
	Password      string                `yaml:"password"`
	Host          string                `yaml:"host"`
	Port          string                `yaml:"port"`
	DatabaseName  string                `yaml:"database_name"`
	SSLMode       string                `yaml:"ssl_mode"`
	Configuration PostgresConfiguration `yaml:"configuration"`
}

func (p Postgres) Enabled() bool {
	return p.Host != ""
}

func (p Postgres) Validate() error {
	if !p.Enabled() {
		return nil
	}

	return validation.ValidateStruct(&p,
		validation.Field(&p.UserName, validation.Required),
		validation.Field(&p.Password, validation.Required),
		validation.Field(&p.Host, validation.Required, is.Host),
		validation.Field(&p.Port, validation.Required, is.Port),
		validation.Field(&p.DatabaseName, validation.Required),
		validation.Field(&p.SSLMode, validation.Required, validation.In("disable", "allow", "prefer", "require")),
	)
}

func (p Postgres) ConnectionString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s?sslmode=%s",
		p.UserName,
		p.Password,
		net.JoinHostPort(p.Host, p.Port),
		p.DatabaseName,
		p.SSLMode,
	)
}

type PostgresConfiguration struct {
	MaxIdleConnections int `yaml:"max_idle_connections"`
	MaxOpenConnections int `yaml:"max_open_connections"`
}

type Server struct {
	Address string `yaml:"address"`
	Port    string `yaml:"port"`
	// AllowedOrigins lists the browser origins allowed to call the node
	// endpoints. Without any, no CORS headers are sent.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Address, validation.Required, is.IP),
		validation.Field(&s.Port, validation.Required, is.Port),
		validation.Field(&s.AllowedOrigins, validation.Each(validation.Required)),
	)
}

type FileParts struct {
	FileName string
	Path     string
}

func ProcessConfigPath(configFile string) (FileParts, error) {
	absolutePath, err := filepath.Abs(configFile)
	if err != nil {
		return FileParts{}, fmt.Errorf("convert to absolute path: %w", err)
	}

	fileName := filepath.Base(absolutePath)
	path := filepath.Dir(absolutePath)
	extension := filepath.Ext(fileName)

	if strings.ReplaceAll(strings.ToLower(extension), ".", "") != defaultExtension {
		return FileParts{}, fmt.Errorf("config file must have extension %s, got: %s", defaultExtension, extension)
	}

	return FileParts{
		FileName: fileName[:len(fileName)-len(extension)],
		Path:     path,
	}, nil
}

func NewFileSystemLoader() *FileSystemLoader {
	return &FileSystemLoader{}
}

type FileSystemLoader struct{}

func (fs *FileSystemLoader) Load(name, path, envPrefix string, b Binder) (Config, error) {
	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName(name)
	v.SetConfigType(defaultExtension)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if b != nil {
		err := b.Bind(v)
		if err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(envPrefix)

	err := v.ReadInConfig()
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var config Config

	err = v.Unmarshal(&config, func(cfg *mapstructure.DecoderConfig) {
		cfg.TagName = defaultTagName
	})
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return config, nil
}

type EnvBinder struct {
	binders map[string]string
}

func (e *EnvBinder) Bind(v *viper.Viper) error {
	for envVar, key := range e.binders {
		err := v.BindEnv(key, envVar)
		if err != nil {
			return fmt.Errorf("bind env var %s to key %s: %w", envVar, key, err)
		}
	}

	return nil
}

func NewEnvBinder(binders map[string]string) *EnvBinder {
	return &EnvBinder{
		binders: binders,
	}
}

func NewDefaultEnvBinder() *EnvBinder {
	return NewEnvBinder(map[string]string{
		"SEATABLE_API_TOKEN":   "seatable.api_token",
		"SEATABLE_SERVER_URL":  "seatable.server_url",
		"SEATABLE_ENVIRONMENT": "seatable.environment",
		"DATABASE_PASSWORD":    "postgres.password",
	})
}
