package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Sessao é a identidade do usuário autenticado, repassada aos handlers pelo contexto
type Sessao struct {
	ID           string
	UsuarioID    string
	Papel        Papel
	CondominioID string
	ExpiraEm     time.Time
}

type TipoEvento int

const (
	EventoEntrada TipoEvento = iota + 1
	EventoSaida
)

type EventoSessao struct {
	Tipo   TipoEvento
	Sessao Sessao
}

var ErrSessaoInvalida = errors.New("sessão inválida ou expirada")

// GerenciadorSessoes emite e valida tokens JWT e notifica entradas/saídas
type GerenciadorSessoes struct {
	segredo   []byte
	ttl       time.Duration
	agora     Relogio
	revogadas ListaRevogacao

	mu       sync.RWMutex
	ouvintes map[int]func(EventoSessao)
	prox     int
}

func NovoGerenciadorSessoes(segredo string, ttl time.Duration, agora Relogio, revogadas ListaRevogacao) *GerenciadorSessoes {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GerenciadorSessoes{
		segredo:   []byte(segredo),
		ttl:       ttl,
		agora:     agora,
		revogadas: revogadas,
		ouvintes:  map[int]func(EventoSessao){},
	}
}

// Assinar registra um ouvinte; a função devolvida cancela a assinatura
func (g *GerenciadorSessoes) Assinar(fn func(EventoSessao)) (cancelar func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.prox
	g.prox++
	g.ouvintes[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.ouvintes, id)
	}
}

func (g *GerenciadorSessoes) publicar(ev EventoSessao) {
	g.mu.RLock()
	fns := make([]func(EventoSessao), 0, len(g.ouvintes))
	for _, fn := range g.ouvintes {
		fns = append(fns, fn)
	}
	g.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (g *GerenciadorSessoes) Entrar(u Usuario) (string, Sessao, error) {
	now := g.agora()
	s := Sessao{
		ID:        uuid.NewString(),
		UsuarioID: u.ID,
		Papel:     u.Papel,
		ExpiraEm:  now.Add(g.ttl),
	}
	if u.CondominioID != nil {
		s.CondominioID = *u.CondominioID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":           s.ID,
		"user_id":       s.UsuarioID,
		"role":          string(s.Papel),
		"condominio_id": s.CondominioID,
		"iat":           now.Unix(),
		"exp":           s.ExpiraEm.Unix(),
	})
	tokenString, err := token.SignedString(g.segredo)
	if err != nil {
		return "", Sessao{}, fmt.Errorf("assinar token: %w", err)
	}
	g.publicar(EventoSessao{Tipo: EventoEntrada, Sessao: s})
	return tokenString, s, nil
}

func (g *GerenciadorSessoes) Validar(ctx context.Context, tokenString string) (Sessao, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return g.segredo, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.agora))
	if err != nil {
		return Sessao{}, ErrSessaoInvalida
	}
	s := Sessao{}
	s.ID, _ = claims["jti"].(string)
	s.UsuarioID, _ = claims["user_id"].(string)
	s.CondominioID, _ = claims["condominio_id"].(string)
	role, _ := claims["role"].(string)
	if s.ID == "" || s.UsuarioID == "" {
		return Sessao{}, ErrSessaoInvalida
	}
	if s.Papel, err = ParsePapel(role); err != nil {
		return Sessao{}, ErrSessaoInvalida
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiraEm = exp.Time
	}
	revogada, err := g.revogadas.Revogada(ctx, s.ID)
	if err != nil {
		return Sessao{}, transiente("erro ao validar sessão", err)
	}
	if revogada {
		return Sessao{}, ErrSessaoInvalida
	}
	return s, nil
}

// Sair revoga o token até a expiração natural
func (g *GerenciadorSessoes) Sair(ctx context.Context, tokenString string) error {
	s, err := g.Validar(ctx, tokenString)
	if err != nil {
		return err
	}
	if err := g.revogadas.Revogar(ctx, s.ID, s.ExpiraEm.Sub(g.agora())); err != nil {
		return transiente("erro ao encerrar sessão", err)
	}
	g.publicar(EventoSessao{Tipo: EventoSaida, Sessao: s})
	return nil
}
