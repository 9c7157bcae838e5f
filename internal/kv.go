package internal

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NovoRedis cria o cliente a partir de REDIS_URL; URL vazia devolve nil (modo memória)
func NovoRedis(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// Limitador faz rate limit por janela fixa
type Limitador struct {
	client *redis.Client
	limite int64
	janela time.Duration
}

func NovoLimitador(client *redis.Client, limite int64, janela time.Duration) *Limitador {
	return &Limitador{client: client, limite: limite, janela: janela}
}

// Permitir retorna true se a chave ainda está dentro do limite.
// Sem Redis, ou com Redis fora do ar, sempre permite.
func (l *Limitador) Permitir(ctx context.Context, chave string) bool {
	if l == nil || l.client == nil || l.limite <= 0 {
		return true
	}
	k := "rl:" + chave
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[kv] rate limit indisponível: %v", err)
		return true
	}
	// a janela começa no primeiro acesso; chave sem TTL ganha um de novo
	if ttl.Val() < 0 {
		if err := l.client.Expire(ctx, k, l.janela).Err(); err != nil {
			log.Printf("[kv] rate limit sem expiração para %s: %v", k, err)
		}
	}
	return incr.Val() <= l.limite
}

// ListaRevogacao guarda os IDs de sessões encerradas até expirarem
type ListaRevogacao interface {
	Revogar(ctx context.Context, id string, ttl time.Duration) error
	Revogada(ctx context.Context, id string) (bool, error)
}

// NovaListaRevogacao usa Redis quando disponível, senão memória local
func NovaListaRevogacao(client *redis.Client, agora Relogio) ListaRevogacao {
	if client != nil {
		return &revogacaoRedis{client: client}
	}
	return &revogacaoMemoria{ids: map[string]time.Time{}, agora: agora}
}

type revogacaoRedis struct {
	client *redis.Client
}

func (r *revogacaoRedis) Revogar(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, "sessao:revogada:"+id, "1", ttl).Err()
}

func (r *revogacaoRedis) Revogada(ctx context.Context, id string) (bool, error) {
	_, err := r.client.Get(ctx, "sessao:revogada:"+id).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type revogacaoMemoria struct {
	mu    sync.Mutex
	ids   map[string]time.Time
	agora Relogio
}

func (r *revogacaoMemoria) Revogar(_ context.Context, id string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.agora()
	for k, exp := range r.ids {
		if !exp.After(now) {
			delete(r.ids, k)
		}
	}
	r.ids[id] = now.Add(ttl)
	return nil
}

func (r *revogacaoMemoria) Revogada(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.ids[id]
	return ok && exp.After(r.agora()), nil
}
