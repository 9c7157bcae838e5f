package internal

import (
	"context"
	"errors"
	"testing"
)

func TestRegrasPrimeiraFalhaVence(t *testing.T) {
	var chamadas []int
	regra := func(i int, err error) Regra[string] {
		return func(string) error {
			chamadas = append(chamadas, i)
			return err
		}
	}
	errB := errors.New("b")
	rs := Regras[string]{regra(1, nil), regra(2, errB), regra(3, errors.New("c"))}

	if err := rs.Avaliar("x"); err != errB {
		t.Fatalf("Avaliar = %v, esperado b", err)
	}
	if len(chamadas) != 2 {
		t.Errorf("regras chamadas = %v, esperado parar na segunda", chamadas)
	}
	if err := (Regras[string]{}).Avaliar("x"); err != nil {
		t.Errorf("sem regras: %v", err)
	}
}

func TestTransicaoRevalidaEstado(t *testing.T) {
	db := novoDB(t)
	f := criarFixtures(t, db)
	c := inserirConvite(t, db, f, "2026-03-10", "08:00", "18:00")
	ctx := context.Background()
	expirar := Transicao[StatusConvite]{De: []StatusConvite{ConvitePendente}, Para: ConviteExpirado}

	if err := expirar.Aplicar(ctx, db, &ConviteVisitante{}, c.ID, nil, "conflito"); err != nil {
		t.Fatalf("primeira transição: %v", err)
	}
	err := expirar.Aplicar(ctx, db, &ConviteVisitante{}, c.ID, nil, "conflito")
	if !errors.Is(err, ErrConflito) || Mensagem(err) != "conflito" {
		t.Fatalf("segunda transição: %v, esperado conflito", err)
	}

	voltar := Transicao[StatusConvite]{De: []StatusConvite{ConviteRegistrado}, Para: ConvitePendente}
	if err := voltar.Aplicar(ctx, db, &ConviteVisitante{}, c.ID, nil, "conflito"); !errors.Is(err, ErrConflito) {
		t.Errorf("expirado voltou para pendente: %v", err)
	}
	if got := recarregar(t, db, c.ID).Status; got != ConviteExpirado {
		t.Errorf("status = %s", got)
	}
}

func TestErroIs(t *testing.T) {
	err := falha(Conflito, "Convite já utilizado")
	if !errors.Is(err, ErrConflito) || errors.Is(err, ErrExpirado) {
		t.Errorf("errors.Is não compara pelo tipo")
	}
	if StatusHTTP(err) != 409 || StatusHTTP(errors.New("x")) != 500 {
		t.Errorf("StatusHTTP inesperado")
	}
	if Mensagem(transiente("erro ao buscar", errors.New("pq: timeout"))) != "erro ao buscar" {
		t.Errorf("Mensagem vazou detalhe interno")
	}
}
