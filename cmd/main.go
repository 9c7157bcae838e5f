package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/morador/backend/internal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// carrega .env (opcional em produção)
	_ = godotenv.Load()

	cfg, err := internal.CarregarConfig()
	if err != nil {
		log.Fatalf("config inválida: %v", err)
	}

	// conecta no Postgres
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// auto‑migrate
	if err := internal.AutoMigrate(db); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	rdb, err := internal.NovoRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if rdb == nil {
		log.Printf("REDIS_URL vazio: rate limit desligado, revogação de sessão em memória")
	}

	var notificador internal.Notificador
	if cfg.WhatsAppURL != "" {
		notificador = internal.NovoWhatsApp(cfg.WhatsAppURL, cfg.WhatsAppToken)
	}

	app := internal.NovoApp(db, cfg, internal.Now, rdb, notificador)
	app.Sessoes.Assinar(func(ev internal.EventoSessao) {
		if ev.Tipo == internal.EventoEntrada {
			log.Printf("[sessao] entrada de %s (%s)", ev.Sessao.UsuarioID, ev.Sessao.Papel)
		} else {
			log.Printf("[sessao] saída de %s", ev.Sessao.UsuarioID)
		}
	})

	// servidor HTTP
	r := internal.NovoRouter(app)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("servidor: %v", err)
	}
}
