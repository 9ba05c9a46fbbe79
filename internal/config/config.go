package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Database   DatabaseConfig
	Registry   RegistryConfig
	Promotion  PromotionConfig
	Kubernetes KubernetesConfig
	AIGateway  AIGatewayConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LoggerConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds the postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RegistryConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type PromotionConfig struct {
	ConfigDir     string
	AllowedModels []string
	SettleDelay   time.Duration
}

type KubernetesConfig struct {
	Enabled        bool
	InCluster      bool
	KubeConfigPath string
	DefaultNS      string
	// Namespaces maps an environment to its serving namespace
	Namespaces map[string]string
}

// NamespaceFor returns the serving namespace of an environment
func (k KubernetesConfig) NamespaceFor(env string) string {
	if ns, ok := k.Namespaces[env]; ok && ns != "" {
		return ns
	}
	if k.DefaultNS != "" {
		return k.DefaultNS
	}
	return "model-serving-" + env
}

type AIGatewayConfig struct {
	Enabled          bool
	InCluster        bool
	KubeConfigPath   string
	GatewayName      string
	GatewayNamespace string
}

// Load reads configuration from the environment and, when configFile is not
// empty, from a YAML/JSON file. Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")
	v.SetDefault("DATABASE_ENABLED", false)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_NAME", "model_promotion")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 2)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("REGISTRY_URL", "http://127.0.0.1:5000")
	v.SetDefault("REGISTRY_TOKEN", "")
	v.SetDefault("REGISTRY_TIMEOUT", "30s")
	v.SetDefault("PROMOTION_CONFIG_DIR", "deploy/models/config")
	v.SetDefault("PROMOTION_ALLOWED_MODELS", "")
	v.SetDefault("PROMOTION_SETTLE_DELAY", "5s")
	v.SetDefault("KUBERNETES_ENABLED", false)
	v.SetDefault("KUBERNETES_IN_CLUSTER", false)
	v.SetDefault("KUBERNETES_KUBECONFIG", "")
	v.SetDefault("KUBERNETES_DEFAULT_NAMESPACE", "")
	v.SetDefault("AIGATEWAY_ENABLED", false)
	v.SetDefault("AIGATEWAY_GATEWAY_NAME", "ai-gateway")
	v.SetDefault("AIGATEWAY_GATEWAY_NAMESPACE", "envoy-gateway-system")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DATABASE_ENABLED"),
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: parseDuration(v.GetString("DATABASE_CONN_MAX_LIFETIME"), 30*time.Minute),
		},
		Registry: RegistryConfig{
			URL:     strings.TrimRight(v.GetString("REGISTRY_URL"), "/"),
			Token:   v.GetString("REGISTRY_TOKEN"),
			Timeout: parseDuration(v.GetString("REGISTRY_TIMEOUT"), 30*time.Second),
		},
		Promotion: PromotionConfig{
			ConfigDir:     v.GetString("PROMOTION_CONFIG_DIR"),
			AllowedModels: stringList(v, "PROMOTION_ALLOWED_MODELS"),
			SettleDelay:   parseDuration(v.GetString("PROMOTION_SETTLE_DELAY"), 5*time.Second),
		},
		Kubernetes: KubernetesConfig{
			Enabled:        v.GetBool("KUBERNETES_ENABLED"),
			InCluster:      v.GetBool("KUBERNETES_IN_CLUSTER"),
			KubeConfigPath: v.GetString("KUBERNETES_KUBECONFIG"),
			DefaultNS:      v.GetString("KUBERNETES_DEFAULT_NAMESPACE"),
			Namespaces: map[string]string{
				"dev":        v.GetString("KUBERNETES_NAMESPACE_DEV"),
				"pre-prod":   v.GetString("KUBERNETES_NAMESPACE_PRE_PROD"),
				"production": v.GetString("KUBERNETES_NAMESPACE_PRODUCTION"),
			},
		},
		AIGateway: AIGatewayConfig{
			Enabled:          v.GetBool("AIGATEWAY_ENABLED"),
			InCluster:        v.GetBool("KUBERNETES_IN_CLUSTER"),
			KubeConfigPath:   v.GetString("KUBERNETES_KUBECONFIG"),
			GatewayName:      v.GetString("AIGATEWAY_GATEWAY_NAME"),
			GatewayNamespace: v.GetString("AIGATEWAY_GATEWAY_NAMESPACE"),
		},
	}

	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// stringList reads a setting given either as a list in the config file or
// as a comma separated string.
func stringList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		return splitList(s)
	}
	return splitList(strings.Join(v.GetStringSlice(key), ","))
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
