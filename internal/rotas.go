package internal

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App junta as dependências que os handlers recebem
type App struct {
	DB        *gorm.DB
	Cfg       Config
	Agora     Relogio
	Sessoes   *GerenciadorSessoes
	Convites  *ServicoConvites
	Portaria  *Portaria
	Pacotes   *ServicoPacotes
	Limitador *Limitador
}

// NovoApp monta os serviços; rdb e notificador podem ser nil
func NovoApp(db *gorm.DB, cfg Config, agora Relogio, rdb *redis.Client, notificador Notificador) *App {
	if agora == nil {
		agora = Now
	}
	fotos := &Disco{Raiz: cfg.StorageDir, BaseURL: cfg.PublicBaseURL}
	return &App{
		DB:        db,
		Cfg:       cfg,
		Agora:     agora,
		Sessoes:   NovoGerenciadorSessoes(cfg.JWTSecret, cfg.SessaoTTL, agora, NovaListaRevogacao(rdb, agora)),
		Convites:  NovoServicoConvites(db, fotos, agora, cfg),
		Portaria:  NovaPortaria(db, agora, cfg, notificador),
		Pacotes:   NovoServicoPacotes(db, agora, cfg, notificador),
		Limitador: NovoLimitador(rdb, cfg.ConviteRateLimit, cfg.ConviteRateJanela),
	}
}

// NovoRouter registra todas as rotas da API
func NovoRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	if app.Cfg.StorageDir != "" {
		r.Static("/arquivos", app.Cfg.StorageDir)
	}

	// público: o visitante não tem conta, o token do convite é a credencial
	publico := r.Group("/convite-visitante", CORSPublico(), ExigirAPIKey(app.Cfg.PublicAPIKey),
		LimitarPorIP(app.Limitador, "convite"))
	publico.Any("", ConviteVisitanteHandler(app.Convites, app.Cfg.FotoMaxBytes))

	r.POST("/auth/login", LoginHandler(app.DB, app.Sessoes, app.Agora))

	auth := r.Group("/", AuthMiddleware(app.Sessoes))
	auth.POST("/auth/logout", LogoutHandler(app.Sessoes))
	auth.GET("/auth/perfil", ProfileHandler(app.DB))
	auth.GET("/auth/meu-qrcode.png", ExigirPermissao(VerPacotesProprios), MeuQRCodeHandler())

	admin := auth.Group("/admin")
	admin.POST("/condominios", ExigirPermissao(GerenciarCondominios), AdminCreateCondominio(app.DB))
	admin.POST("/usuarios", ExigirPermissao(GerenciarUsuarios), AdminCreateUser(app.DB, app.Cfg.BcryptCusto))
	admin.POST("/unidades", ExigirPermissao(GerenciarUnidades), AdminCreateUnidade(app.DB))
	admin.GET("/unidades", ExigirPermissao(GerenciarPacotes), AdminListUnidades(app.DB))

	convites := auth.Group("/convites", ExigirPermissao(CriarConvite))
	convites.POST("", CriarConviteHandler(app.Convites))
	convites.GET("", ListarConvitesHandler(app.Convites))
	convites.DELETE("/:id", ExcluirConviteHandler(app.Convites))

	auth.POST("/portaria/entrada", ExigirPermissao(ValidarEntrada), ValidarEntradaHandler(app.Portaria))

	pacotes := auth.Group("/pacotes")
	staff := pacotes.Group("", ExigirPermissao(GerenciarPacotes))
	staff.POST("/lotes", CriarLoteHandler(app.Pacotes))
	staff.GET("/triagem/:qr", BuscarTriagemHandler(app.Pacotes))
	staff.POST("/triagem", TriarHandler(app.Pacotes))
	staff.POST("/retirada/verificar", VerificarRetiradaHandler(app.Pacotes))
	staff.POST("/retirada", RetirarHandler(app.Pacotes))
	staff.GET("/:id/etiqueta.png", EtiquetaPacoteHandler(app.Pacotes))

	morador := pacotes.Group("", ExigirPermissao(VerPacotesProprios))
	morador.GET("/meus", MeusPacotesHandler(app.Pacotes))
	morador.POST("/:id/solicitar-retirada", SolicitarRetiradaHandler(app.Pacotes))

	return r
}
