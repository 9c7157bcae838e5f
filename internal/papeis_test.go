package internal

import "testing"

func TestParsePapel(t *testing.T) {
	for _, p := range Papeis {
		got, err := ParsePapel(" " + string(p) + " ")
		if err != nil || got != p {
			t.Errorf("ParsePapel(%q) = %q, %v", p, got, err)
		}
	}
	if _, err := ParsePapel("sindico"); err == nil {
		t.Error("papel desconhecido aceito")
	}
}

func TestTabelaDePermissoes(t *testing.T) {
	cases := []struct {
		papel Papel
		perm  Permissao
		quer  bool
	}{
		{PapelMorador, CriarConvite, true},
		{PapelMorador, ValidarEntrada, false},
		{PapelMorador, GerenciarPacotes, false},
		{PapelPorteiro, ValidarEntrada, true},
		{PapelPorteiro, GerenciarPacotes, true},
		{PapelPorteiro, CriarConvite, false},
		{PapelPorteiro, GerenciarUnidades, false},
		{PapelAdministrador, GerenciarUnidades, true},
		{PapelAdministrador, GerenciarCondominios, false},
		{PapelSuperAdmin, GerenciarCondominios, true},
		{PapelSuperAdmin, GerenciarPacotes, false},
		{PapelPrestador, CriarConvite, false},
		{Papel("desconhecido"), CriarConvite, false},
		{Papel(""), VerPacotesProprios, false},
	}
	for _, tc := range cases {
		if got := tc.papel.Permite(tc.perm); got != tc.quer {
			t.Errorf("%q.Permite(%d) = %v, esperado %v", tc.papel, tc.perm, got, tc.quer)
		}
	}
}

func TestRotasPorPapel(t *testing.T) {
	for _, p := range Papeis {
		if len(RotasPermitidas(p)) == 0 {
			t.Errorf("papel %q sem rotas", p)
		}
		if !RotaPermitida(p, "/perfil") {
			t.Errorf("papel %q sem /perfil", p)
		}
	}
	if !RotaPermitida(PapelMorador, "/convites/novo") || RotaPermitida(PapelMorador, "/convitesx") {
		t.Error("prefixo de rota não respeitado")
	}
	if RotaPermitida(PapelMorador, "/portaria") || RotaPermitida(Papel("x"), "/perfil") {
		t.Error("rota liberada indevidamente")
	}
}
