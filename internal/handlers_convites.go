package internal

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ==== Endpoint público do visitante (/convite-visitante) ====

// ConviteVisitanteHandler atende GET (consulta), POST (cadastro) e OPTIONS; o resto é 405
func ConviteVisitanteHandler(convites *ServicoConvites, maxFoto int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
		case http.MethodGet:
			consultarConvite(c, convites)
		case http.MethodPost:
			registrarVisitante(c, convites, maxFoto)
		default:
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		}
	}
}

func consultarConvite(c *gin.Context, convites *ServicoConvites) {
	convite, err := convites.Consultar(c.Request.Context(), c.Query("token"))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrNaoEncontrado):
			status = http.StatusNotFound
		case errors.Is(err, ErrExpirado), errors.Is(err, ErrConflito):
			status = http.StatusGone
		}
		c.JSON(status, gin.H{"error": Mensagem(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"convite": convite})
}

// folga para os campos de texto e cabeçalhos do multipart
const folgaFormulario = 1 << 16

func registrarVisitante(c *gin.Context, convites *ServicoConvites, maxFoto int64) {
	if maxFoto > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFoto+folgaFormulario)
	}
	if _, err := c.MultipartForm(); err != nil {
		var grande *http.MaxBytesError
		if errors.As(err, &grande) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": MsgFotoGrande})
			return
		}
	}
	token, nome := c.PostForm("token"), c.PostForm("nome")
	var foto *Foto
	if fh, err := c.FormFile("foto"); err == nil {
		foto = lerFoto(fh, maxFoto)
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		log.Printf("[convite] foto ilegível no formulário: %v", err)
	}
	codigo, err := convites.Registrar(c.Request.Context(), token, nome, foto)
	if err != nil {
		status := http.StatusInternalServerError
		msg := MsgErroRegistrar
		switch {
		case errors.Is(err, ErrValidacao), errors.Is(err, ErrConflito):
			status, msg = http.StatusBadRequest, Mensagem(err)
		case errors.Is(err, ErrNaoEncontrado):
			status, msg = http.StatusNotFound, Mensagem(err)
		case errors.Is(err, ErrExpirado):
			status, msg = http.StatusGone, Mensagem(err)
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "qr_code": codigo})
}

// lerFoto lê até maxFoto+1 bytes; uma foto maior é repassada e o serviço recusa
func lerFoto(fh *multipart.FileHeader, maxFoto int64) *Foto {
	f, err := fh.Open()
	if err != nil {
		log.Printf("[convite] erro ao abrir foto: %v", err)
		return nil
	}
	defer f.Close()
	var r io.Reader = f
	if maxFoto > 0 {
		r = io.LimitReader(f, maxFoto+1)
	}
	dados, err := io.ReadAll(r)
	if err != nil {
		log.Printf("[convite] erro ao ler foto: %v", err)
		return nil
	}
	return &Foto{Dados: dados, Nome: fh.Filename}
}

// ==== Convites do morador ====

func CriarConviteHandler(convites *ServicoConvites) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NovoConvite
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dados inválidos"})
			return
		}
		convite, err := convites.Criar(c.Request.Context(), SessaoDe(c), req)
		if err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"convite": convite, "link": convites.LinkConvite(*convite)})
	}
}

func ListarConvitesHandler(convites *ServicoConvites) gin.HandlerFunc {
	return func(c *gin.Context) {
		lista, err := convites.ListarDoMorador(c.Request.Context(), SessaoDe(c).UsuarioID)
		if err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusOK, lista)
	}
}

func ExcluirConviteHandler(convites *ServicoConvites) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := convites.Excluir(c.Request.Context(), SessaoDe(c).UsuarioID, c.Param("id")); err != nil {
			RespondFalha(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// ==== Portaria ====

// ValidarEntradaHandler sempre responde 200; o resultado (liberado ou não) vai no corpo
func ValidarEntradaHandler(portaria *Portaria) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Codigo string `json:"codigo"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dados inválidos"})
			return
		}
		c.JSON(http.StatusOK, portaria.ValidarEntrada(c.Request.Context(), SessaoDe(c).CondominioID, req.Codigo))
	}
}
