package internal

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config reúne as variáveis de ambiente do serviço
type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	DatabaseURL string        `env:"DATABASE_URL"`
	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	SessaoTTL   time.Duration `env:"SESSAO_TTL" envDefault:"24h"`
	BcryptCusto int           `env:"BCRYPT_CUSTO" envDefault:"12"`

	// chave anônima exigida no header apikey do endpoint público; vazia desliga a checagem
	PublicAPIKey  string `env:"PUBLIC_API_KEY"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	FusoHorario   string `env:"FUSO_HORARIO" envDefault:"America/Sao_Paulo"`

	StorageDir      string `env:"STORAGE_DIR" envDefault:"./storage"`
	FotoObrigatoria bool   `env:"FOTO_OBRIGATORIA" envDefault:"false"`
	FotoMaxBytes    int64  `env:"FOTO_MAX_BYTES" envDefault:"5242880"`

	RedisURL          string        `env:"REDIS_URL"`
	ConviteRateLimit  int64         `env:"CONVITE_RATE_LIMIT" envDefault:"30"`
	ConviteRateJanela time.Duration `env:"CONVITE_RATE_JANELA" envDefault:"1m"`

	WhatsAppURL   string `env:"WHATSAPP_API_URL"`
	WhatsAppToken string `env:"WHATSAPP_API_TOKEN"`

	LoteMax int `env:"LOTE_MAX" envDefault:"500"`

	loc *time.Location
}

const minSegredoJWT = 32

// CarregarConfig lê o ambiente (o .env já deve ter sido carregado pelo main)
func CarregarConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if len(cfg.JWTSecret) < minSegredoJWT {
		return Config{}, fmt.Errorf("JWT_SECRET deve ter ao menos %d caracteres", minSegredoJWT)
	}
	loc, err := time.LoadLocation(cfg.FusoHorario)
	if err != nil {
		return Config{}, fmt.Errorf("fuso horário %q: %w", cfg.FusoHorario, err)
	}
	cfg.loc = loc
	if cfg.LoteMax <= 0 {
		cfg.LoteMax = 500
	}
	return cfg, nil
}

// Local devolve o fuso do condomínio (UTC se a config não passou por CarregarConfig)
func (c Config) Local() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}
