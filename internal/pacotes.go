package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MsgPacoteNaoTriavel     = "Pacote não encontrado ou já triado"
	MsgPacoteJaProcessado   = "Pacote não encontrado ou já processado"
	MsgPacoteOutroMorador   = "Pacote não pertence a este morador"
	MsgMoradorNaoEncontrado = "Morador não encontrado"
	MsgUnidadeNaoEncontrada = "Unidade não encontrada"
)

// ServicoPacotes conduz o ciclo RECEBIDO → AGUARDANDO_RETIRADA → EM_CONFIRMACAO → RETIRADO.
// Toda pré-condição (status, condomínio, dono) é checada aqui e revalidada no UPDATE.
type ServicoPacotes struct {
	db          *gorm.DB
	agora       Relogio
	loteMax     int
	notificador Notificador
}

func NovoServicoPacotes(db *gorm.DB, agora Relogio, cfg Config, n Notificador) *ServicoPacotes {
	limite := cfg.LoteMax
	if limite <= 0 {
		limite = 500
	}
	return &ServicoPacotes{db: db, agora: agora, loteMax: limite, notificador: n}
}

// CriarLote cria um lote e exatamente n pacotes RECEBIDO, cada um com QR próprio
func (s *ServicoPacotes) CriarLote(ctx context.Context, sessao Sessao, n int, descricao string) (*Lote, []Pacote, error) {
	if n <= 0 || n > s.loteMax {
		return nil, nil, falha(Validacao, fmt.Sprintf("quantidade deve estar entre 1 e %d", s.loteMax))
	}
	if sessao.CondominioID == "" {
		return nil, nil, falha(Proibido, "usuário sem condomínio vinculado")
	}
	descricao = strings.TrimSpace(descricao)
	lote := Lote{CondominioID: sessao.CondominioID, Descricao: descricao, Quantidade: n, CriadoPor: sessao.UsuarioID}
	pacotes := make([]Pacote, n)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lote).Error; err != nil {
			return err
		}
		recebido := s.agora()
		for i := range pacotes {
			pacotes[i] = Pacote{
				CondominioID: sessao.CondominioID,
				LoteID:       &lote.ID,
				Descricao:    descricao,
				Status:       PacoteRecebido,
				QRCode:       uuid.NewString(),
				RecebidoEm:   recebido,
			}
		}
		return tx.CreateInBatches(&pacotes, 100).Error
	})
	if err != nil {
		return nil, nil, transiente("erro ao criar lote", err)
	}
	log.Printf("[pacotes] lote %s criado com %d pacotes", lote.ID, n)
	return &lote, pacotes, nil
}

func (s *ServicoPacotes) buscarPorQR(ctx context.Context, condominioID, qr string, status []StatusPacote, msg string) (Pacote, error) {
	var p Pacote
	err := s.db.WithContext(ctx).
		Where("qr_code = ? AND condominio_id = ? AND status IN ?", DecodificarQR(qr), condominioID, status).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, falha(NaoEncontrado, msg)
	}
	if err != nil {
		return p, transiente("erro ao buscar pacote", err)
	}
	return p, nil
}

// PacoteParaTriagem devolve o pacote lido se ele ainda está RECEBIDO
func (s *ServicoPacotes) PacoteParaTriagem(ctx context.Context, sessao Sessao, qr string) (Pacote, error) {
	return s.buscarPorQR(ctx, sessao.CondominioID, qr, []StatusPacote{PacoteRecebido}, MsgPacoteNaoTriavel)
}

// Triar vincula o pacote à unidade de destino e ao morador dela
func (s *ServicoPacotes) Triar(ctx context.Context, sessao Sessao, qr, unidadeID string) (Pacote, error) {
	p, err := s.PacoteParaTriagem(ctx, sessao, qr)
	if err != nil {
		return p, err
	}
	var u Unidade
	err = s.db.WithContext(ctx).Where("id = ? AND condominio_id = ?", unidadeID, sessao.CondominioID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, falha(NaoEncontrado, MsgUnidadeNaoEncontrada)
	}
	if err != nil {
		return p, transiente("erro ao buscar unidade", err)
	}
	err = Transicao[StatusPacote]{De: []StatusPacote{PacoteRecebido}, Para: PacoteAguardandoRetirada}.
		Aplicar(ctx, s.db, &Pacote{}, p.ID, map[string]any{
			"unidade_id": u.ID,
			"morador_id": u.MoradorID,
		}, MsgPacoteNaoTriavel)
	if errors.Is(err, ErrConflito) {
		return p, falha(NaoEncontrado, MsgPacoteNaoTriavel)
	}
	if err != nil {
		return p, err
	}
	p.Status = PacoteAguardandoRetirada
	p.UnidadeID = &u.ID
	p.MoradorID = u.MoradorID
	log.Printf("[pacotes] pacote %s triado para unidade %s", p.ID, u.Identificacao)
	s.avisarMorador(ctx, p.MoradorID, fmt.Sprintf("Morador.app: chegou uma encomenda para %s. Retire na portaria.", u.Identificacao))
	return p, nil
}

// ListarDoMorador devolve os pacotes do próprio morador
func (s *ServicoPacotes) ListarDoMorador(ctx context.Context, moradorID string) ([]Pacote, error) {
	var pacotes []Pacote
	if err := s.db.WithContext(ctx).Where("morador_id = ?", moradorID).Order("recebido_em desc").Find(&pacotes).Error; err != nil {
		return nil, transiente("erro ao listar pacotes", err)
	}
	return pacotes, nil
}

// SolicitarRetirada é a confirmação do morador: AGUARDANDO_RETIRADA → EM_CONFIRMACAO
func (s *ServicoPacotes) SolicitarRetirada(ctx context.Context, moradorID, pacoteID string) error {
	res := s.db.WithContext(ctx).Model(&Pacote{}).
		Where("id = ? AND morador_id = ? AND status = ?", pacoteID, moradorID, PacoteAguardandoRetirada).
		Update("status", PacoteEmConfirmacao)
	if res.Error != nil {
		return transiente("erro ao atualizar pacote", res.Error)
	}
	if res.RowsAffected == 0 {
		return falha(NaoEncontrado, MsgPacoteJaProcessado)
	}
	return nil
}

var retiraveis = []StatusPacote{PacoteAguardandoRetirada, PacoteEmConfirmacao}

// VerificarRetirada faz as checagens da retirada sem alterar nada (tela de confirmação)
func (s *ServicoPacotes) VerificarRetirada(ctx context.Context, sessao Sessao, moradorQR, pacoteQR string) (Usuario, Pacote, error) {
	moradorID := DecodificarQR(moradorQR)
	var m Usuario
	err := s.db.WithContext(ctx).
		Where("id = ? AND papel = ? AND condominio_id = ?", moradorID, PapelMorador, sessao.CondominioID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, Pacote{}, falha(NaoEncontrado, MsgMoradorNaoEncontrado)
	}
	if err != nil {
		return m, Pacote{}, transiente("erro ao buscar morador", err)
	}
	p, err := s.buscarPorQR(ctx, sessao.CondominioID, pacoteQR, retiraveis, MsgPacoteJaProcessado)
	if err != nil {
		return m, p, err
	}
	if p.MoradorID != nil && *p.MoradorID != m.ID {
		return m, p, falha(Proibido, MsgPacoteOutroMorador)
	}
	return m, p, nil
}

// Retirar confirma a entrega do pacote ao morador
func (s *ServicoPacotes) Retirar(ctx context.Context, sessao Sessao, moradorQR, pacoteQR string) (Pacote, error) {
	m, p, err := s.VerificarRetirada(ctx, sessao, moradorQR, pacoteQR)
	if err != nil {
		return p, err
	}
	retirado := s.agora()
	q := s.db
	if p.MoradorID != nil {
		q = q.Where("morador_id = ?", m.ID)
	}
	err = Transicao[StatusPacote]{De: retiraveis, Para: PacoteRetirado}.
		Aplicar(ctx, q, &Pacote{}, p.ID, map[string]any{"retirado_em": retirado}, MsgPacoteJaProcessado)
	if errors.Is(err, ErrConflito) {
		return p, falha(NaoEncontrado, MsgPacoteJaProcessado)
	}
	if err != nil {
		return p, err
	}
	p.Status = PacoteRetirado
	p.RetiradoEm = &retirado
	log.Printf("[pacotes] pacote %s retirado pelo morador %s", p.ID, m.ID)
	return p, nil
}

// Buscar devolve um pacote do condomínio pelo id (etiqueta)
func (s *ServicoPacotes) Buscar(ctx context.Context, sessao Sessao, id string) (Pacote, error) {
	var p Pacote
	err := s.db.WithContext(ctx).Where("id = ? AND condominio_id = ?", id, sessao.CondominioID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, falha(NaoEncontrado, "Pacote não encontrado")
	}
	if err != nil {
		return p, transiente("erro ao buscar pacote", err)
	}
	return p, nil
}

func (s *ServicoPacotes) avisarMorador(ctx context.Context, moradorID *string, msg string) {
	if s.notificador == nil || moradorID == nil {
		return
	}
	var m Usuario
	if err := s.db.WithContext(ctx).Select("telefone").First(&m, "id = ?", *moradorID).Error; err != nil {
		return
	}
	avisar(s.notificador, m.Telefone, msg)
}
