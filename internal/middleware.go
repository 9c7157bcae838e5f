package internal

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const chaveSessao = "sessao"

// AuthMiddleware exige "Authorization: Bearer <jwt>" e deixa a Sessao no contexto
func AuthMiddleware(sessoes *GerenciadorSessoes) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenBearer(c)
		if token == "" {
			RespondError(c, http.StatusUnauthorized, "token ausente")
			return
		}
		s, err := sessoes.Validar(c.Request.Context(), token)
		if errors.Is(err, ErrTransiente) {
			RespondError(c, http.StatusServiceUnavailable, Mensagem(err))
			return
		}
		if err != nil {
			RespondError(c, http.StatusUnauthorized, ErrSessaoInvalida.Error())
			return
		}
		c.Set(chaveSessao, s)
		c.Set("user_id", s.UsuarioID)
		c.Set("role", string(s.Papel))
		c.Next()
	}
}

// ExigirPermissao barra o acesso quando o papel da sessão não tem a permissão
func ExigirPermissao(p Permissao) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessaoDe(c).Papel.Permite(p) {
			RespondError(c, http.StatusForbidden, "não autorizado")
			return
		}
		c.Next()
	}
}

// SessaoDe devolve a sessão colocada pelo AuthMiddleware (vazia fora de rotas autenticadas)
func SessaoDe(c *gin.Context) Sessao {
	v, ok := c.Get(chaveSessao)
	if !ok {
		return Sessao{}
	}
	s, _ := v.(Sessao)
	return s
}

func tokenBearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// CORSPublico libera o endpoint do visitante para qualquer origem
func CORSPublico() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Next()
	}
}

// ExigirAPIKey confere o header apikey; a chave não identifica ninguém, o token é a capacidade
func ExigirAPIKey(chave string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if chave == "" || c.Request.Method == http.MethodOptions || c.GetHeader("apikey") == chave {
			c.Next()
			return
		}
		RespondError(c, http.StatusUnauthorized, "apikey inválida")
	}
}

// LimitarPorIP aplica o rate limit por IP do cliente
func LimitarPorIP(l *Limitador, prefixo string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Permitir(c.Request.Context(), prefixo+":"+c.ClientIP()) {
			RespondError(c, http.StatusTooManyRequests, "Muitas requisições, tente novamente em instantes")
			return
		}
		c.Next()
	}
}
