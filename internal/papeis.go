package internal

import (
	"fmt"
	"strings"
)

// Papel é o conjunto fechado de perfis de acesso
type Papel string

const (
	PapelSuperAdmin    Papel = "super_admin"
	PapelAdministrador Papel = "administrador"
	PapelPorteiro      Papel = "porteiro"
	PapelMorador       Papel = "morador"
	PapelPrestador     Papel = "prestador"
)

// Papeis lista todos os perfis válidos
var Papeis = []Papel{PapelSuperAdmin, PapelAdministrador, PapelPorteiro, PapelMorador, PapelPrestador}

func ParsePapel(s string) (Papel, error) {
	p := Papel(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Papeis {
		if p == v {
			return p, nil
		}
	}
	return "", fmt.Errorf("papel desconhecido: %q", s)
}

type Permissao int

const (
	GerenciarCondominios Permissao = iota + 1
	GerenciarUsuarios
	GerenciarUnidades
	CriarConvite
	ValidarEntrada
	GerenciarPacotes
	VerPacotesProprios
)

// Permite é a tabela de permissões. Papel desconhecido não recebe nada.
func (p Papel) Permite(perm Permissao) bool {
	switch p {
	case PapelSuperAdmin:
		return perm == GerenciarCondominios || perm == GerenciarUsuarios
	case PapelAdministrador:
		switch perm {
		case GerenciarUsuarios, GerenciarUnidades, ValidarEntrada, GerenciarPacotes:
			return true
		}
	case PapelPorteiro:
		return perm == ValidarEntrada || perm == GerenciarPacotes
	case PapelMorador:
		return perm == CriarConvite || perm == VerPacotesProprios
	case PapelPrestador:
		return false
	}
	return false
}

// rotas do app liberadas por perfil (prefixos)
var rotasPorPapel = map[Papel][]string{
	PapelSuperAdmin:    {"/super-admin", "/perfil"},
	PapelAdministrador: {"/admin", "/portaria", "/pacotes", "/perfil"},
	PapelPorteiro:      {"/portaria", "/pacotes", "/perfil"},
	PapelMorador:       {"/home", "/convites", "/meus-pacotes", "/marketplace", "/prestadores", "/perfil"},
	PapelPrestador:     {"/home", "/prestadores", "/perfil"},
}

// RotasPermitidas devolve os prefixos de rota que o app pode abrir para o perfil
func RotasPermitidas(p Papel) []string {
	return append([]string(nil), rotasPorPapel[p]...)
}

func RotaPermitida(p Papel, caminho string) bool {
	for _, prefixo := range rotasPorPapel[p] {
		if caminho == prefixo || strings.HasPrefix(caminho, prefixo+"/") {
			return true
		}
	}
	return false
}
