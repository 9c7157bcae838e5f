package internal

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoEnviar(t *testing.T) {
	d := &Disco{Raiz: t.TempDir(), BaseURL: "http://morador.test/"}
	ctx := context.Background()

	if err := d.Enviar(ctx, "visitantes", "a/foto.png", []byte("x"), "image/png", true); err == nil {
		t.Fatal("envio para bucket inexistente aceito")
	}
	if err := d.CriarBucket(ctx, "visitantes"); err != nil {
		t.Fatal(err)
	}
	if err := d.CriarBucket(ctx, "visitantes"); err != nil {
		t.Fatalf("CriarBucket não é idempotente: %v", err)
	}

	if err := d.Enviar(ctx, "visitantes", "a/foto.png", []byte("um"), "image/png", false); err != nil {
		t.Fatal(err)
	}
	if err := d.Enviar(ctx, "visitantes", "a/foto.png", []byte("dois"), "image/png", false); !errors.Is(err, ErrArquivoExiste) {
		t.Errorf("sobrescrita sem upsert: %v", err)
	}
	if err := d.Enviar(ctx, "visitantes", "a/foto.png", []byte("tres"), "image/png", true); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(d.Raiz, "visitantes", "a", "foto.png"))
	if err != nil || string(got) != "tres" {
		t.Errorf("conteúdo = %q, %v", got, err)
	}

	if err := d.Enviar(ctx, "visitantes", "../../fora.txt", []byte("x"), "", true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(d.Raiz, "visitantes", "fora.txt")); err != nil {
		t.Errorf("caminho com .. escapou do bucket: %v", err)
	}
	if err := d.CriarBucket(ctx, "../x"); err == nil {
		t.Error("bucket com barra aceito")
	}

	if u := d.URLPublica("visitantes", "a/foto.png"); u != "http://morador.test/arquivos/visitantes/a/foto.png" {
		t.Errorf("URLPublica = %s", u)
	}
}

func TestIdentificarFoto(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3)), nil); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name  string
		dados []byte
		ext   string
		ok    bool
	}{
		{"png", pngTeste(t), ".png", true},
		{"jpeg", buf.Bytes(), ".jpg", true},
		{"texto", []byte("não sou uma imagem"), "", false},
		{"vazio", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ext, _, err := IdentificarFoto(tc.dados)
			if (err == nil) != tc.ok || ext != tc.ext {
				t.Errorf("IdentificarFoto = %q, %v", ext, err)
			}
		})
	}
}
