package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Motivo string

const (
	MotivoLiberado       Motivo = "liberado"
	MotivoCodigoInvalido Motivo = "codigo_invalido"
	MotivoJaUtilizado    Motivo = "ja_utilizado"
	MotivoSemCadastro    Motivo = "cadastro_incompleto"
	MotivoForaDaData     Motivo = "fora_da_data"
	MotivoForaDoHorario  Motivo = "fora_do_horario"
	MotivoErroConexao    Motivo = "erro_conexao"
)

// ResultadoAdmissao é sempre devolvido como dado; nenhuma falha vira "liberado"
type ResultadoAdmissao struct {
	Liberado  bool   `json:"liberado"`
	Motivo    Motivo `json:"motivo"`
	Mensagem  string `json:"mensagem"`
	ConviteID string `json:"convite_id,omitempty"`
	Nome      string `json:"nome,omitempty"`
	FotoURL   string `json:"foto_url,omitempty"`
}

func negar(m Motivo, msg string) ResultadoAdmissao {
	return ResultadoAdmissao{Motivo: m, Mensagem: msg}
}

// negacao é o erro usado pelas regras da portaria
type negacao struct{ ResultadoAdmissao }

func (n *negacao) Error() string { return n.Mensagem }

func negado(m Motivo, msg string) error { return &negacao{negar(m, msg)} }

// Portaria decide se um código apresentado libera a entrada agora e o consome
type Portaria struct {
	db          *gorm.DB
	agora       Relogio
	cfg         Config
	notificador Notificador
}

func NovaPortaria(db *gorm.DB, agora Relogio, cfg Config, n Notificador) *Portaria {
	return &Portaria{db: db, agora: agora, cfg: cfg, notificador: n}
}

// regras na ordem em que são checadas; um código usado e vencido deve dizer "já utilizado".
// Data e horário são conferidos contra o mesmo instante.
func (p *Portaria) regras(now time.Time) Regras[*ConviteVisitante] {
	loc := p.cfg.Local()
	return Regras[*ConviteVisitante]{
		func(c *ConviteVisitante) error {
			if c.UsadoEm != nil || c.Status == ConviteUtilizado {
				return negado(MotivoJaUtilizado, "Convite já utilizado")
			}
			return nil
		},
		func(c *ConviteVisitante) error {
			if c.Status != ConviteRegistrado {
				return negado(MotivoSemCadastro, "Visitante ainda não completou o cadastro")
			}
			return nil
		},
		func(c *ConviteVisitante) error {
			if c.DataVisita != DataLocal(now, loc) {
				return negado(MotivoForaDaData, "Convite válido apenas para "+FormatarData(c.DataVisita))
			}
			return nil
		},
		func(c *ConviteVisitante) error {
			ini, err1 := ParseHorario(c.HorarioInicio)
			fim, err2 := ParseHorario(c.HorarioFim)
			agora := MinutosDoDia(now, loc)
			if err1 != nil || err2 != nil || agora < ini || agora > fim {
				return negado(MotivoForaDoHorario, fmt.Sprintf("Convite válido apenas entre %s e %s",
					FormatarHorario(c.HorarioInicio), FormatarHorario(c.HorarioFim)))
			}
			return nil
		},
	}
}

// DecodificarQR extrai o código de entrada do conteúdo lido pela câmera.
// Aceita o código puro ou um link com ?codigo= / ?qr_code=.
func DecodificarQR(conteudo string) string {
	conteudo = strings.TrimSpace(conteudo)
	if u, err := url.Parse(conteudo); err == nil && u.Scheme != "" {
		for _, k := range []string{"codigo", "qr_code", "code"} {
			if v := strings.TrimSpace(u.Query().Get(k)); v != "" {
				return v
			}
		}
		if partes := strings.Split(strings.Trim(u.Path, "/"), "/"); len(partes) > 0 {
			return partes[len(partes)-1]
		}
	}
	return conteudo
}

// ValidarEntrada confere o código lido e, se tudo estiver certo, marca o convite como utilizado
func (p *Portaria) ValidarEntrada(ctx context.Context, condominioID, conteudo string) ResultadoAdmissao {
	now := p.agora()
	codigo := DecodificarQR(conteudo)
	if codigo == "" {
		return negar(MotivoCodigoInvalido, "QR Code inválido")
	}
	var c ConviteVisitante
	q := p.db.WithContext(ctx).Where("qr_code = ?", codigo)
	if condominioID != "" {
		q = q.Where("condominio_id = ?", condominioID)
	}
	err := q.First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return negar(MotivoCodigoInvalido, "QR Code inválido")
	}
	if err != nil {
		log.Printf("[portaria] erro ao buscar código: %v", err)
		return negar(MotivoErroConexao, "Erro de conexão, tente novamente")
	}

	if err := p.regras(now).Avaliar(&c); err != nil {
		var n *negacao
		if errors.As(err, &n) {
			n.ConviteID = c.ID
			return n.ResultadoAdmissao
		}
		return negar(MotivoErroConexao, "Erro de conexão, tente novamente")
	}

	err = Transicao[StatusConvite]{De: []StatusConvite{ConviteRegistrado}, Para: ConviteUtilizado}.
		Aplicar(ctx, p.db, &ConviteVisitante{}, c.ID,
			map[string]any{"usado_em": now}, "Convite já utilizado")
	if errors.Is(err, ErrConflito) {
		return ResultadoAdmissao{Motivo: MotivoJaUtilizado, Mensagem: "Convite já utilizado", ConviteID: c.ID}
	}
	if err != nil {
		log.Printf("[portaria] erro ao consumir convite %s: %v", c.ID, err)
		return negar(MotivoErroConexao, "Erro de conexão, tente novamente")
	}

	r := ResultadoAdmissao{Liberado: true, Motivo: MotivoLiberado, Mensagem: "Entrada liberada", ConviteID: c.ID}
	if c.NomeRegistrado != nil {
		r.Nome = *c.NomeRegistrado
	} else {
		r.Nome = c.NomeVisitante
	}
	if c.FotoURL != nil {
		r.FotoURL = *c.FotoURL
	}
	log.Printf("[portaria] entrada liberada: convite %s", c.ID)
	p.avisarMorador(ctx, c, r.Nome)
	return r
}

func (p *Portaria) avisarMorador(ctx context.Context, c ConviteVisitante, nome string) {
	if p.notificador == nil {
		return
	}
	var morador Usuario
	if err := p.db.WithContext(ctx).Select("telefone").First(&morador, "id = ?", c.MoradorID).Error; err != nil {
		return
	}
	avisar(p.notificador, morador.Telefone, fmt.Sprintf("Morador.app: seu visitante %s acabou de entrar.", nome))
}
