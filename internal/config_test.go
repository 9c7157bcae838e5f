package internal

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

const segredoForte = "0123456789abcdef0123456789abcdef"

func TestCarregarConfigExigeSegredoJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	if _, err := CarregarConfig(); err == nil {
		t.Fatal("config carregada sem JWT_SECRET")
	}

	for _, segredo := range []string{"", "dev-secret"} {
		t.Setenv("JWT_SECRET", segredo)
		if cfg, err := CarregarConfig(); err == nil {
			t.Errorf("JWT_SECRET=%q aceito (%q)", segredo, cfg.JWTSecret)
		}
	}

	t.Setenv("JWT_SECRET", segredoForte)
	cfg, err := CarregarConfig()
	if err != nil {
		t.Fatalf("CarregarConfig: %v", err)
	}
	if cfg.JWTSecret != segredoForte {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestCarregarConfigPadroes(t *testing.T) {
	t.Setenv("JWT_SECRET", segredoForte)
	t.Setenv("CONVITE_RATE_JANELA", "30s")
	t.Setenv("FOTO_OBRIGATORIA", "true")
	cfg, err := CarregarConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SessaoTTL != 24*time.Hour || cfg.ConviteRateJanela != 30*time.Second || !cfg.FotoObrigatoria {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Local().String() != "America/Sao_Paulo" {
		t.Errorf("fuso = %s", cfg.Local())
	}

	t.Setenv("FUSO_HORARIO", "Marte/Olympus")
	if _, err := CarregarConfig(); err == nil || !strings.Contains(err.Error(), "fuso") {
		t.Errorf("fuso inválido: %v", err)
	}
}

func TestSegredoPadraoNaoForjaSessao(t *testing.T) {
	db := novoDB(t)
	f := criarFixtures(t, db)
	rel := novoRelogio(t, "2026-03-10 10:00")
	revog := NovaListaRevogacao(nil, rel.agora)
	forjador := NovoGerenciadorSessoes("dev-secret", time.Hour, rel.agora, revog)
	g := NovoGerenciadorSessoes(segredoForte, time.Hour, rel.agora, revog)

	token, _, err := forjador.Entrar(f.admin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Validar(context.Background(), token); err == nil {
		t.Error("token assinado com segredo de desenvolvimento aceito")
	}
}
