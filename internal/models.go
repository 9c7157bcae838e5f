package internal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Condomínio (tenant)
type Condominio struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	Nome     string    `gorm:"not null" json:"nome"`
	CriadoEm time.Time `gorm:"autoCreateTime" json:"criado_em"`
}

func (Condominio) TableName() string { return "condominios" }

// Usuário do sistema; o ID também é o conteúdo do QR pessoal do morador
type Usuario struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	CondominioID *string    `gorm:"size:36;index" json:"condominio_id"`
	Nome         string     `gorm:"not null" json:"nome"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Telefone     string     `json:"telefone"`
	SenhaHash    string     `json:"-"`
	Papel        Papel      `gorm:"size:32;not null" json:"papel"`
	Bloqueado    bool       `json:"bloqueado"`
	UltimoLogin  *time.Time `json:"ultimo_login,omitempty"`
	CriadoEm     time.Time  `gorm:"autoCreateTime" json:"criado_em"`
}

func (Usuario) TableName() string { return "usuarios" }

// Unidade (apartamento/casa) com o morador responsável
type Unidade struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	CondominioID  string    `gorm:"size:36;index;not null" json:"condominio_id"`
	Identificacao string    `gorm:"not null" json:"identificacao"` // ex.: "Bloco A - 101"
	MoradorID     *string   `gorm:"size:36;index" json:"morador_id"`
	CriadoEm      time.Time `gorm:"autoCreateTime" json:"criado_em"`
}

func (Unidade) TableName() string { return "unidades" }

type StatusConvite string

const (
	ConvitePendente   StatusConvite = "pending"
	ConviteRegistrado StatusConvite = "registered"
	ConviteUtilizado  StatusConvite = "used"
	ConviteExpirado   StatusConvite = "expired"
)

// Convite de visitante. Token vai no link público; QRCode só existe após o cadastro.
type ConviteVisitante struct {
	ID             string        `gorm:"primaryKey;size:36" json:"id"`
	Token          string        `gorm:"size:36;uniqueIndex;not null" json:"token"`
	CondominioID   string        `gorm:"size:36;index;not null" json:"condominio_id"`
	MoradorID      string        `gorm:"size:36;index;not null" json:"morador_id"`
	NomeVisitante  string        `gorm:"not null" json:"nome_visitante"`
	DataVisita     string        `gorm:"size:10;index;not null" json:"data_visita"` // YYYY-MM-DD
	HorarioInicio  string        `gorm:"size:8;not null" json:"horario_inicio"`     // HH:MM
	HorarioFim     string        `gorm:"size:8;not null" json:"horario_fim"`
	Status         StatusConvite `gorm:"size:16;index;not null" json:"status"`
	NomeRegistrado *string       `json:"nome_registrado"`
	FotoURL        *string       `json:"foto_url"`
	QRCode         *string       `gorm:"size:36;uniqueIndex" json:"qr_code"`
	UsadoEm        *time.Time    `json:"usado_em"`
	CriadoEm       time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (ConviteVisitante) TableName() string { return "convites_visitante" }

type StatusPacote string

const (
	PacoteRecebido           StatusPacote = "RECEBIDO"
	PacoteAguardandoRetirada StatusPacote = "AGUARDANDO_RETIRADA"
	PacoteEmConfirmacao      StatusPacote = "EM_CONFIRMACAO"
	PacoteRetirado           StatusPacote = "RETIRADO"
)

// Lote de pacotes recebidos juntos na portaria
type Lote struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	CondominioID string    `gorm:"size:36;index;not null" json:"condominio_id"`
	Descricao    string    `json:"descricao"`
	Quantidade   int       `gorm:"not null" json:"quantidade"`
	CriadoPor    string    `gorm:"size:36" json:"criado_por"`
	CriadoEm     time.Time `gorm:"autoCreateTime" json:"criado_em"`
}

func (Lote) TableName() string { return "lotes" }

// Pacote; QRCode é definido na criação e nunca muda
type Pacote struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	CondominioID string       `gorm:"size:36;index;not null" json:"condominio_id"`
	LoteID       *string      `gorm:"size:36;index" json:"lote_id"`
	Descricao    string       `json:"descricao"`
	Status       StatusPacote `gorm:"size:32;index;not null" json:"status"`
	QRCode       string       `gorm:"size:36;uniqueIndex;not null" json:"qr_code"`
	UnidadeID    *string      `gorm:"size:36;index" json:"unidade_id"`
	MoradorID    *string      `gorm:"size:36;index" json:"morador_id"`
	RecebidoEm   time.Time    `json:"recebido_em"`
	RetiradoEm   *time.Time   `json:"retirado_em"`
}

func (Pacote) TableName() string { return "pacotes" }

func (c *Condominio) BeforeCreate(*gorm.DB) error {
	c.ID = novoID(c.ID)
	return nil
}

func (u *Usuario) BeforeCreate(*gorm.DB) error {
	u.ID = novoID(u.ID)
	return nil
}

func (u *Unidade) BeforeCreate(*gorm.DB) error {
	u.ID = novoID(u.ID)
	return nil
}

func (c *ConviteVisitante) BeforeCreate(*gorm.DB) error {
	c.ID = novoID(c.ID)
	return nil
}

func (l *Lote) BeforeCreate(*gorm.DB) error {
	l.ID = novoID(l.ID)
	return nil
}

func (p *Pacote) BeforeCreate(*gorm.DB) error {
	p.ID = novoID(p.ID)
	return nil
}

func novoID(atual string) string {
	if atual != "" {
		return atual
	}
	return uuid.NewString()
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Condominio{}, &Usuario{}, &Unidade{}, &ConviteVisitante{}, &Lote{}, &Pacote{})
}
