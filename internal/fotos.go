package internal

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Foto enviada pelo visitante no cadastro
type Foto struct {
	Dados []byte
	Nome  string
}

const maxLadoFoto = 8000

// IdentificarFoto confere se os bytes são uma imagem suportada e devolve extensão e content-type
func IdentificarFoto(dados []byte) (ext, contentType string, err error) {
	cfg, formato, err := image.DecodeConfig(bytes.NewReader(dados))
	if err != nil {
		return "", "", fmt.Errorf("foto inválida: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxLadoFoto || cfg.Height > maxLadoFoto {
		return "", "", fmt.Errorf("foto com dimensões inválidas: %dx%d", cfg.Width, cfg.Height)
	}
	switch formato {
	case "jpeg":
		return ".jpg", "image/jpeg", nil
	case "png":
		return ".png", "image/png", nil
	case "webp":
		return ".webp", "image/webp", nil
	}
	return "", "", fmt.Errorf("formato de foto não suportado: %s", formato)
}
