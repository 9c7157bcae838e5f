package internal

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fusoTeste = time.FixedZone("BRT", -3*60*60)

func init() {
	gin.SetMode(gin.TestMode)
}

// novoDB abre um SQLite em memória exclusivo do teste, com uma única conexão
func novoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("abrir sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// relogioTeste é um relógio ajustável
type relogioTeste struct {
	mu sync.Mutex
	t  time.Time
}

func novoRelogio(t *testing.T, quando string) *relogioTeste {
	t.Helper()
	r := &relogioTeste{}
	r.definir(t, quando)
	return r
}

// definir recebe "2026-03-10 10:00" no fuso do condomínio
func (r *relogioTeste) definir(t *testing.T, quando string) {
	t.Helper()
	v, err := time.ParseInLocation("2006-01-02 15:04", quando, fusoTeste)
	if err != nil {
		t.Fatalf("horário de teste %q: %v", quando, err)
	}
	r.mu.Lock()
	r.t = v
	r.mu.Unlock()
}

func (r *relogioTeste) agora() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.t
}

func cfgTeste(t *testing.T) Config {
	return Config{
		JWTSecret:     "segredo-de-teste",
		SessaoTTL:     time.Hour,
		BcryptCusto:   bcrypt.MinCost,
		PublicBaseURL: "http://morador.test",
		StorageDir:    t.TempDir(),
		FotoMaxBytes:  1 << 20,
		LoteMax:       50,
		loc:           fusoTeste,
	}
}

type fixtures struct {
	condominio Condominio
	admin      Usuario
	porteiro   Usuario
	morador    Usuario
	vizinho    Usuario
	unidade    Unidade
}

func criarUsuario(t *testing.T, db *gorm.DB, condID *string, papel Papel, email, telefone string) Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("senha123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := Usuario{CondominioID: condID, Nome: string(papel) + " " + email, Email: email, Telefone: telefone, SenhaHash: string(hash), Papel: papel}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("criar usuário: %v", err)
	}
	return u
}

func criarFixtures(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()
	var f fixtures
	f.condominio = Condominio{Nome: "Residencial Jardim"}
	if err := db.Create(&f.condominio).Error; err != nil {
		t.Fatal(err)
	}
	id := &f.condominio.ID
	f.admin = criarUsuario(t, db, id, PapelAdministrador, "admin@jardim.test", "")
	f.porteiro = criarUsuario(t, db, id, PapelPorteiro, "portaria@jardim.test", "")
	f.morador = criarUsuario(t, db, id, PapelMorador, "ana@jardim.test", "11987654321")
	f.vizinho = criarUsuario(t, db, id, PapelMorador, "bruno@jardim.test", "")
	f.unidade = Unidade{CondominioID: f.condominio.ID, Identificacao: "Bloco A - 101", MoradorID: &f.morador.ID}
	if err := db.Create(&f.unidade).Error; err != nil {
		t.Fatal(err)
	}
	return f
}

func sessaoPara(u Usuario) Sessao {
	s := Sessao{ID: uuid.NewString(), UsuarioID: u.ID, Papel: u.Papel}
	if u.CondominioID != nil {
		s.CondominioID = *u.CondominioID
	}
	return s
}

func pngTeste(t *testing.T) []byte {
	t.Helper()
	return pngLado(t, 4)
}

// pngLado gera um PNG quadrado; lados diferentes dão bytes diferentes
func pngLado(t *testing.T, lado int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, lado, lado))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// notificadorTeste registra as mensagens enviadas
type notificadorTeste struct {
	msgs chan string
}

func novoNotificador() *notificadorTeste { return &notificadorTeste{msgs: make(chan string, 10)} }

func (n *notificadorTeste) Notificar(_ context.Context, telefone, msg string) error {
	n.msgs <- telefone + ": " + msg
	return nil
}

func (n *notificadorTeste) esperar(t *testing.T) string {
	t.Helper()
	select {
	case m := <-n.msgs:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("nenhuma notificação enviada")
		return ""
	}
}
