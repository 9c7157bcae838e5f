package internal

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ==== Usuário / Autenticação ====

func LoginHandler(db *gorm.DB, sessoes *GerenciadorSessoes, agora Relogio) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
			Senha string `json:"senha"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dados inválidos"})
			return
		}
		var user Usuario
		if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "e-mail ou senha inválidos"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.SenhaHash), []byte(req.Senha)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "e-mail ou senha inválidos"})
			return
		}
		if user.Bloqueado {
			c.JSON(http.StatusForbidden, gin.H{"error": "usuário bloqueado"})
			return
		}
		token, sessao, err := sessoes.Entrar(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "erro ao iniciar sessão"})
			return
		}
		now := agora()
		db.Model(&user).Update("ultimo_login", now)
		c.JSON(http.StatusOK, gin.H{
			"token":     token,
			"papel":     sessao.Papel,
			"rotas":     RotasPermitidas(sessao.Papel),
			"expira_em": sessao.ExpiraEm,
		})
	}
}

func LogoutHandler(sessoes *GerenciadorSessoes) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessoes.Sair(c.Request.Context(), tokenBearer(c)); err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func ProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := SessaoDe(c)
		var user Usuario
		if err := db.First(&user, "id = ?", s.UsuarioID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "usuário não encontrado"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":            user.ID,
			"nome":          user.Nome,
			"email":         user.Email,
			"telefone":      user.Telefone,
			"papel":         user.Papel,
			"condominio_id": user.CondominioID,
			"rotas":         RotasPermitidas(user.Papel),
		})
	}
}

// QR pessoal do morador (conteúdo = id do usuário), lido na retirada de pacotes
func MeuQRCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		responderQR(c, SessaoDe(c).UsuarioID)
	}
}

func responderQR(c *gin.Context, conteudo string) {
	png, err := qrcode.Encode(conteudo, qrcode.Medium, 320)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro ao gerar QR Code"})
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}

// ==== Painel Admin ====

func AdminCreateCondominio(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Nome string `json:"nome"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Nome) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nome é obrigatório"})
			return
		}
		cond := Condominio{Nome: strings.TrimSpace(req.Nome)}
		if err := db.Create(&cond).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "erro ao criar condomínio"})
			return
		}
		c.JSON(http.StatusCreated, cond)
	}
}

// AdminCreateUser cria usuários; o administrador só cria no próprio condomínio
func AdminCreateUser(db *gorm.DB, custo int) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := SessaoDe(c)
		var req struct {
			Nome         string `json:"nome"`
			Email        string `json:"email"`
			Telefone     string `json:"telefone"`
			Senha        string `json:"senha"`
			Papel        string `json:"papel"`
			CondominioID string `json:"condominio_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dados inválidos"})
			return
		}
		papel, err := ParsePapel(req.Papel)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tipo de usuário inválido"})
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if strings.TrimSpace(req.Nome) == "" || !IsValidEmail(email) || len(req.Senha) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nome, e-mail válido e senha (mín. 6) são obrigatórios"})
			return
		}
		telefone := SanitizePhone(req.Telefone)
		if telefone != "" && !IsValidPhone(telefone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "telefone inválido"})
			return
		}
		condominioID := req.CondominioID
		if s.Papel != PapelSuperAdmin {
			if papel == PapelSuperAdmin {
				c.JSON(http.StatusForbidden, gin.H{"error": "não autorizado"})
				return
			}
			condominioID = s.CondominioID
		}
		var condPtr *string
		if papel != PapelSuperAdmin {
			if condominioID == "" || db.First(&Condominio{}, "id = ?", condominioID).Error != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "condomínio não encontrado"})
				return
			}
			condPtr = &condominioID
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Senha), custo)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "erro ao gerar senha"})
			return
		}
		user := Usuario{
			CondominioID: condPtr,
			Nome:         strings.TrimSpace(req.Nome),
			Email:        email,
			Telefone:     telefone,
			SenhaHash:    string(hash),
			Papel:        papel,
		}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "e-mail já cadastrado"})
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func AdminCreateUnidade(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := SessaoDe(c)
		var req struct {
			Identificacao string  `json:"identificacao"`
			MoradorID     *string `json:"morador_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Identificacao) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "identificação é obrigatória"})
			return
		}
		if req.MoradorID != nil && *req.MoradorID != "" {
			var m Usuario
			err := db.Where("id = ? AND papel = ? AND condominio_id = ?", *req.MoradorID, PapelMorador, s.CondominioID).First(&m).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": MsgMoradorNaoEncontrado})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "erro ao buscar morador"})
				return
			}
		} else {
			req.MoradorID = nil
		}
		u := Unidade{CondominioID: s.CondominioID, Identificacao: strings.TrimSpace(req.Identificacao), MoradorID: req.MoradorID}
		if err := db.Create(&u).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "erro ao criar unidade"})
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

func AdminListUnidades(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var unidades []Unidade
		if err := db.Where("condominio_id = ?", SessaoDe(c).CondominioID).Order("identificacao").Find(&unidades).Error; err != nil {
			RespondError(c, http.StatusInternalServerError, "erro ao listar unidades")
			return
		}
		c.JSON(http.StatusOK, unidades)
	}
}
