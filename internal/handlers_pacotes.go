package internal

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ==== Pacotes ====

func CriarLoteHandler(pacotes *ServicoPacotes) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Quantidade int    `json:"quantidade"`
			Descricao  string `json:"descricao"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dados inválidos"})
			return
		}
		lote, lista, err := pacotes.CriarLote(c.Request.Context(), SessaoDe(c), req.Quantidade, req.Descricao)
		if err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"lote": lote, "pacotes": lista})
	}
}

func BuscarTriagemHandler(pacotes *ServicoPacotes) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pacotes.PacoteParaTriagem(c.Request.Context(), SessaoDe(c), c.Param("qr"))
		if err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func TriarHandler(pacotes *ServicoPacotes) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			QRCode    string `json:"qr_code"`
			UnidadeID string `json:"unidade_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.QRCode == "" || req.UnidadeID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "qr_code e unidade_id são obrigatórios"})
			return
		}
		p, err := pacotes.Triar(c.Request.Context(), SessaoDe(c), req.QRCode, req.UnidadeID)
		if err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func MeusPacotesHandler(pacotes *ServicoPacotes) gin.HandlerFunc {
	return func(c *gin.Context) {
		lista, err := pacotes.ListarDoMorador(c.Request.Context(), SessaoDe(c).UsuarioID)
		if err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusOK, lista)
	}
}

func SolicitarRetiradaHandler(pacotes *ServicoPacotes) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := pacotes.SolicitarRetirada(c.Request.Context(), SessaoDe(c).UsuarioID, c.Param("id")); err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": PacoteEmConfirmacao})
	}
}

type pedidoRetirada struct {
	MoradorQR string `json:"morador_qr"`
	PacoteQR  string `json:"pacote_qr"`
}

func VerificarRetiradaHandler(pacotes *ServicoPacotes) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pedidoRetirada
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dados inválidos"})
			return
		}
		m, p, err := pacotes.VerificarRetirada(c.Request.Context(), SessaoDe(c), req.MoradorQR, req.PacoteQR)
		if err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"morador": gin.H{"id": m.ID, "nome": m.Nome}, "pacote": p})
	}
}

func RetirarHandler(pacotes *ServicoPacotes) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pedidoRetirada
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dados inválidos"})
			return
		}
		p, err := pacotes.Retirar(c.Request.Context(), SessaoDe(c), req.MoradorQR, req.PacoteQR)
		if err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// Etiqueta com o QR do pacote para colar na embalagem
func EtiquetaPacoteHandler(pacotes *ServicoPacotes) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pacotes.Buscar(c.Request.Context(), SessaoDe(c), c.Param("id"))
		if err != nil {
			RespondFalha(c, err)
			return
		}
		responderQR(c, p.QRCode)
	}
}
