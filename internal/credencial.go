package internal

import (
	"context"

	"gorm.io/gorm"
)

// Regra verifica uma pré-condição; nil significa aprovada
type Regra[T any] func(T) error

// Regras são avaliadas em ordem e a primeira falha vence.
// A ordem define a mensagem que o usuário vê, então não reordene.
type Regras[T any] []Regra[T]

func (rs Regras[T]) Avaliar(v T) error {
	for _, r := range rs {
		if err := r(v); err != nil {
			return err
		}
	}
	return nil
}

// Transicao move um registro entre estados, revalidando o estado no próprio UPDATE.
type Transicao[S ~string] struct {
	De   []S
	Para S
}

// Aplicar executa UPDATE ... WHERE id = ? AND status IN (de...). Zero linhas
// afetadas significa que outra requisição chegou antes: devolve Conflito.
func (t Transicao[S]) Aplicar(ctx context.Context, db *gorm.DB, model any, id string, campos map[string]any, msgConflito string) error {
	upd := map[string]any{"status": t.Para}
	for k, v := range campos {
		upd[k] = v
	}
	res := db.WithContext(ctx).Model(model).
		Where("id = ? AND status IN ?", id, t.De).
		Updates(upd)
	if res.Error != nil {
		return transiente("erro ao atualizar registro", res.Error)
	}
	if res.RowsAffected == 0 {
		return falha(Conflito, msgConflito)
	}
	return nil
}
