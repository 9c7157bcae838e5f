package internal

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const BucketFotosVisitantes = "visitantes"

// Mensagens do endpoint público (exibidas tal qual pela página do visitante)
const (
	MsgConviteNaoEncontrado = "Convite não encontrado"
	MsgConviteExpirado      = "Convite expirado"
	MsgConviteUtilizado     = "Convite já utilizado"
	MsgConviteIndisponivel  = "Convite já foi utilizado ou expirou"
	MsgCamposObrigatorios   = "Token e nome são obrigatórios"
	MsgErroRegistrar        = "Erro ao registrar"
	MsgFotoGrande           = "Foto excede o tamanho máximo"
)

// ConvitePublico são os campos que a página do visitante pode ver
type ConvitePublico struct {
	ID            string        `json:"id"`
	NomeVisitante string        `json:"nome_visitante"`
	DataVisita    string        `json:"data_visita"`
	HorarioInicio string        `json:"horario_inicio"`
	HorarioFim    string        `json:"horario_fim"`
	Status        StatusConvite `json:"status"`
	QRCode        *string       `json:"qr_code"`
}

func visaoPublica(c ConviteVisitante) ConvitePublico {
	return ConvitePublico{
		ID:            c.ID,
		NomeVisitante: c.NomeVisitante,
		DataVisita:    c.DataVisita,
		HorarioInicio: c.HorarioInicio,
		HorarioFim:    c.HorarioFim,
		Status:        c.Status,
		QRCode:        c.QRCode,
	}
}

// ServicoConvites é a única parte autorizada a tirar um convite de "pending"
// e a emitir o código de entrada.
type ServicoConvites struct {
	db              *gorm.DB
	fotos           Armazenamento
	agora           Relogio
	cfg             Config
	fotoObrigatoria bool
}

func NovoServicoConvites(db *gorm.DB, fotos Armazenamento, agora Relogio, cfg Config) *ServicoConvites {
	return &ServicoConvites{db: db, fotos: fotos, agora: agora, cfg: cfg, fotoObrigatoria: cfg.FotoObrigatoria}
}

func (s *ServicoConvites) hoje() string { return DataLocal(s.agora(), s.cfg.Local()) }

func (s *ServicoConvites) buscarPorToken(ctx context.Context, token string) (ConviteVisitante, error) {
	var c ConviteVisitante
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, falha(NaoEncontrado, MsgConviteNaoEncontrado)
	}
	if err != nil {
		return c, transiente("erro ao buscar convite", err)
	}
	return c, nil
}

// expirarSeVencido aplica a expiração preguiçosa: convite pendente com data passada vira "expired".
// Devolve true se o convite está vencido (persistido agora ou por outra leitura).
func (s *ServicoConvites) expirarSeVencido(ctx context.Context, c *ConviteVisitante) (bool, error) {
	if c.Status != ConvitePendente || c.DataVisita >= s.hoje() {
		return c.Status == ConviteExpirado, nil
	}
	err := Transicao[StatusConvite]{De: []StatusConvite{ConvitePendente}, Para: ConviteExpirado}.
		Aplicar(ctx, s.db, &ConviteVisitante{}, c.ID, nil, MsgConviteExpirado)
	if err != nil && !errors.Is(err, ErrConflito) {
		return false, err
	}
	// conflito: alguém já mudou o status; recarrega para decidir
	if err != nil {
		if err := s.db.WithContext(ctx).First(c, "id = ?", c.ID).Error; err != nil {
			return false, transiente("erro ao buscar convite", err)
		}
		return c.Status == ConviteExpirado, nil
	}
	c.Status = ConviteExpirado
	log.Printf("[convite] %s expirado (visita em %s)", c.ID, c.DataVisita)
	return true, nil
}

// Consultar valida o token do link público.
// Registrado devolve o QR já emitido para o visitante que recarregou a página.
func (s *ServicoConvites) Consultar(ctx context.Context, token string) (ConvitePublico, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ConvitePublico{}, falha(NaoEncontrado, MsgConviteNaoEncontrado)
	}
	c, err := s.buscarPorToken(ctx, token)
	if err != nil {
		return ConvitePublico{}, err
	}
	vencido, err := s.expirarSeVencido(ctx, &c)
	if err != nil {
		return ConvitePublico{}, err
	}
	switch {
	case vencido:
		return ConvitePublico{}, falha(Expirado, MsgConviteExpirado)
	case c.Status == ConviteUtilizado:
		return ConvitePublico{}, falha(Conflito, MsgConviteUtilizado)
	}
	return visaoPublica(c), nil
}

// Registrar grava nome e foto do visitante e emite o código de entrada de uso único
func (s *ServicoConvites) Registrar(ctx context.Context, token, nome string, foto *Foto) (string, error) {
	token, nome = strings.TrimSpace(token), strings.TrimSpace(nome)
	if token == "" || nome == "" {
		return "", falha(Validacao, MsgCamposObrigatorios)
	}
	c, err := s.buscarPorToken(ctx, token)
	if err != nil {
		return "", err
	}
	if c.Status != ConvitePendente {
		return "", falha(Conflito, MsgConviteIndisponivel)
	}
	vencido, err := s.expirarSeVencido(ctx, &c)
	if err != nil {
		return "", err
	}
	if vencido {
		return "", falha(Expirado, MsgConviteExpirado)
	}
	if c.Status != ConvitePendente {
		return "", falha(Conflito, MsgConviteIndisponivel)
	}

	// o código nomeia o arquivo: cada tentativa grava o seu e só a vencedora fica referenciada
	codigo := uuid.NewString()
	var fotoURL *string
	if foto != nil && len(foto.Dados) > 0 {
		u, err := s.enviarFoto(ctx, c.ID, codigo, foto)
		switch {
		case err == nil:
			fotoURL = &u
		case s.fotoObrigatoria:
			return "", transiente(MsgErroRegistrar, err)
		default:
			log.Printf("[convite] %s: foto não enviada, cadastro segue sem foto: %v", c.ID, err)
		}
	}

	err = Transicao[StatusConvite]{De: []StatusConvite{ConvitePendente}, Para: ConviteRegistrado}.
		Aplicar(ctx, s.db, &ConviteVisitante{}, c.ID, map[string]any{
			"nome_registrado": nome,
			"foto_url":        fotoURL,
			"qr_code":         codigo,
		}, MsgConviteIndisponivel)
	if errors.Is(err, ErrConflito) {
		return "", err
	}
	if err != nil {
		log.Printf("[convite] %s: erro ao registrar: %v", c.ID, err)
		return "", transiente(MsgErroRegistrar, err)
	}
	log.Printf("[convite] %s registrado por visitante", c.ID)
	return codigo, nil
}

func (s *ServicoConvites) enviarFoto(ctx context.Context, conviteID, codigo string, foto *Foto) (string, error) {
	if s.fotos == nil {
		return "", errors.New("armazenamento não configurado")
	}
	if s.cfg.FotoMaxBytes > 0 && int64(len(foto.Dados)) > s.cfg.FotoMaxBytes {
		return "", errors.New("foto excede o tamanho máximo")
	}
	ext, contentType, err := IdentificarFoto(foto.Dados)
	if err != nil {
		return "", err
	}
	if err := s.fotos.CriarBucket(ctx, BucketFotosVisitantes); err != nil {
		return "", err
	}
	caminho := conviteID + "/" + codigo + ext
	if err := s.fotos.Enviar(ctx, BucketFotosVisitantes, caminho, foto.Dados, contentType, false); err != nil {
		return "", err
	}
	return s.fotos.URLPublica(BucketFotosVisitantes, caminho), nil
}

// NovoConvite são os dados que o morador informa
type NovoConvite struct {
	NomeVisitante string `json:"nome_visitante"`
	DataVisita    string `json:"data_visita"`
	HorarioInicio string `json:"horario_inicio"`
	HorarioFim    string `json:"horario_fim"`
}

// Criar registra um convite pendente com token novo
func (s *ServicoConvites) Criar(ctx context.Context, sessao Sessao, in NovoConvite) (*ConviteVisitante, error) {
	in.NomeVisitante = strings.TrimSpace(in.NomeVisitante)
	if in.NomeVisitante == "" {
		return nil, falha(Validacao, "nome do visitante é obrigatório")
	}
	if _, err := ParseData(in.DataVisita); err != nil {
		return nil, falha(Validacao, "data da visita inválida (use AAAA-MM-DD)")
	}
	in.DataVisita = strings.TrimSpace(in.DataVisita)
	if in.DataVisita < s.hoje() {
		return nil, falha(Validacao, "data da visita não pode estar no passado")
	}
	ini, err1 := ParseHorario(in.HorarioInicio)
	fim, err2 := ParseHorario(in.HorarioFim)
	if err1 != nil || err2 != nil {
		return nil, falha(Validacao, "horário inválido (use HH:MM)")
	}
	if ini > fim {
		return nil, falha(Validacao, "horário de início deve ser anterior ao fim")
	}
	if sessao.CondominioID == "" {
		return nil, falha(Proibido, "usuário sem condomínio vinculado")
	}
	c := ConviteVisitante{
		Token:         uuid.NewString(),
		CondominioID:  sessao.CondominioID,
		MoradorID:     sessao.UsuarioID,
		NomeVisitante: in.NomeVisitante,
		DataVisita:    in.DataVisita,
		HorarioInicio: FormatarHorario(in.HorarioInicio),
		HorarioFim:    FormatarHorario(in.HorarioFim),
		Status:        ConvitePendente,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, transiente("erro ao criar convite", err)
	}
	return &c, nil
}

// LinkConvite monta o link que o morador compartilha com o visitante
func (s *ServicoConvites) LinkConvite(c ConviteVisitante) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/convite/" + c.Token
}

// ListarDoMorador devolve os convites do morador, expirando os pendentes vencidos antes
func (s *ServicoConvites) ListarDoMorador(ctx context.Context, moradorID string) ([]ConviteVisitante, error) {
	db := s.db.WithContext(ctx)
	err := db.Model(&ConviteVisitante{}).
		Where("morador_id = ? AND status = ? AND data_visita < ?", moradorID, ConvitePendente, s.hoje()).
		Update("status", ConviteExpirado).Error
	if err != nil {
		return nil, transiente("erro ao atualizar convites", err)
	}
	var convites []ConviteVisitante
	if err := db.Where("morador_id = ?", moradorID).Order("data_visita desc, criado_em desc").Find(&convites).Error; err != nil {
		return nil, transiente("erro ao listar convites", err)
	}
	return convites, nil
}

// Excluir remove um convite do próprio morador enquanto ainda está pendente
func (s *ServicoConvites) Excluir(ctx context.Context, moradorID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND morador_id = ? AND status = ?", id, moradorID, ConvitePendente).
		Delete(&ConviteVisitante{})
	if res.Error != nil {
		return transiente("erro ao excluir convite", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&ConviteVisitante{}).Where("id = ? AND morador_id = ?", id, moradorID).Count(&n).Error; err != nil {
		return transiente("erro ao excluir convite", err)
	}
	if n == 0 {
		return falha(NaoEncontrado, MsgConviteNaoEncontrado)
	}
	return falha(Conflito, "só é possível excluir convites pendentes")
}
