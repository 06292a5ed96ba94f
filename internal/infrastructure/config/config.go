package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DatabaseConfig contém as configurações de conexão com o PostgreSQL
type DatabaseConfig struct {
	URL             string `env:"DATABASE_URL"`
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            int    `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER" envDefault:"postgres"`
	Password        string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string `env:"DB_NAME" envDefault:"pdv_fiscal"`
	SSLMode         string `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxConnections  int32  `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	MinConnections  int32  `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	MaxConnLifetime int    `env:"DB_MAX_LIFETIME" envDefault:"3600"`
}

// ConnectionString retorna a string de conexão para o PostgreSQL
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// MigrationURL retorna a URL de conexão no formato aceito pelo migrate
func (c *DatabaseConfig) MigrationURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Config agrupa as configurações da aplicação
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	BasePath string `env:"API_BASE_PATH" envDefault:"/api/v1"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// CancelRequiresValidCertificate exige certificado vigente da filial para
	// cancelar documentos
	CancelRequiresValidCertificate bool `env:"FISCAL_CANCEL_REQUIRES_CERT" envDefault:"false"`

	Database DatabaseConfig
}

// Load carrega as configurações a partir das variáveis de ambiente
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("falha ao carregar configuração: %w", err)
	}
	return cfg, nil
}
