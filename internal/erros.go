package internal

import (
	"errors"
	"net/http"
)

// Tipo classifica as falhas devolvidas pelos serviços
type Tipo int

const (
	NaoEncontrado Tipo = iota + 1
	Expirado
	Conflito
	Validacao
	Proibido
	Transiente
)

// Erro carrega o tipo da falha e a mensagem exibida ao usuário.
type Erro struct {
	Tipo Tipo
	Msg  string
	Err  error
}

func (e *Erro) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Erro) Unwrap() error { return e.Err }

// Is compara apenas o tipo, então errors.Is(err, ErrConflito) funciona
// para qualquer mensagem.
func (e *Erro) Is(target error) bool {
	t, ok := target.(*Erro)
	return ok && t.Msg == "" && t.Tipo == e.Tipo
}

var (
	ErrNaoEncontrado = &Erro{Tipo: NaoEncontrado}
	ErrExpirado      = &Erro{Tipo: Expirado}
	ErrConflito      = &Erro{Tipo: Conflito}
	ErrValidacao     = &Erro{Tipo: Validacao}
	ErrProibido      = &Erro{Tipo: Proibido}
	ErrTransiente    = &Erro{Tipo: Transiente}
)

func falha(t Tipo, msg string) *Erro { return &Erro{Tipo: t, Msg: msg} }

func transiente(msg string, err error) *Erro {
	return &Erro{Tipo: Transiente, Msg: msg, Err: err}
}

// StatusHTTP traduz o tipo da falha para o código HTTP padrão da API autenticada.
func StatusHTTP(err error) int {
	var e *Erro
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Tipo {
	case NaoEncontrado:
		return http.StatusNotFound
	case Expirado:
		return http.StatusGone
	case Conflito:
		return http.StatusConflict
	case Validacao:
		return http.StatusBadRequest
	case Proibido:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Mensagem devolve o texto para o usuário; falhas internas nunca vazam detalhes.
func Mensagem(err error) string {
	var e *Erro
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "erro interno"
}
