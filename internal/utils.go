package internal

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	reTelefone = regexp.MustCompile(`^\d{10,15}$`)
	reNaoDigit = regexp.MustCompile(`\D`)
	reEmail    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

const formatoData = "2006-01-02"

// Relogio devolve o instante atual; os testes injetam um relógio fixo
type Relogio func() time.Time

// Retorna timestamp UTC atual
func Now() time.Time {
	return time.Now().UTC()
}

// Data de hoje em "YYYY-MM-DD" no fuso do condomínio
func DataLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(formatoData)
}

// Minutos desde a meia-noite, horário local
func MinutosDoDia(t time.Time, loc *time.Location) int {
	l := t.In(loc)
	return l.Hour()*60 + l.Minute()
}

// Converte "HH:MM" ou "HH:MM:SS" em minutos desde a meia-noite
func ParseHorario(s string) (int, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("horário inválido: %q", s)
}

// Valida data "YYYY-MM-DD"
func ParseData(s string) (time.Time, error) {
	return time.Parse(formatoData, strings.TrimSpace(s))
}

// "2026-10-14" -> "14/10/2026"
func FormatarData(s string) string {
	t, err := ParseData(s)
	if err != nil {
		return s
	}
	return t.Format("02/01/2006")
}

// "08:00:00" -> "08:00"
func FormatarHorario(s string) string {
	m, err := ParseHorario(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Valida telefone (10~15 dígitos)
func IsValidPhone(phone string) bool {
	return reTelefone.MatchString(phone)
}

// Remove caracteres não numéricos
func SanitizePhone(phone string) string {
	return reNaoDigit.ReplaceAllString(phone, "")
}

// Valida email simples
func IsValidEmail(email string) bool {
	return reEmail.MatchString(email)
}

// Mascarar telefone
func MaskPhone(phone string) string {
	clean := SanitizePhone(phone)
	if len(clean) <= 4 {
		return clean
	}
	return strings.Repeat("*", len(clean)-4) + clean[len(clean)-4:]
}

// Responde erro padronizado
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// Responde a falha de um serviço com o status correspondente ao tipo
func RespondFalha(c *gin.Context, err error) {
	RespondError(c, StatusHTTP(err), Mensagem(err))
}
