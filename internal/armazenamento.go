package internal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Armazenamento de arquivos por bucket
type Armazenamento interface {
	CriarBucket(ctx context.Context, bucket string) error
	Enviar(ctx context.Context, bucket, caminho string, dados []byte, contentType string, upsert bool) error
	URLPublica(bucket, caminho string) string
}

var ErrArquivoExiste = errors.New("arquivo já existe")

// Disco guarda os buckets como diretórios em Raiz e os publica em BaseURL + "/arquivos"
type Disco struct {
	Raiz    string
	BaseURL string
}

func (d *Disco) CriarBucket(_ context.Context, bucket string) error {
	dir, err := d.resolver(bucket, "")
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func (d *Disco) Enviar(ctx context.Context, bucket, caminho string, dados []byte, _ string, upsert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	destino, err := d.resolver(bucket, caminho)
	if err != nil {
		return err
	}
	bucketDir, _ := d.resolver(bucket, "")
	if _, err := os.Stat(bucketDir); err != nil {
		return fmt.Errorf("bucket %q: %w", bucket, err)
	}
	if err := os.MkdirAll(filepath.Dir(destino), 0o755); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !upsert {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(destino, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return ErrArquivoExiste
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(dados); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d *Disco) URLPublica(bucket, caminho string) string {
	partes := []string{url.PathEscape(bucket)}
	for _, p := range strings.Split(path.Clean("/"+caminho), "/") {
		if p != "" {
			partes = append(partes, url.PathEscape(p))
		}
	}
	return strings.TrimRight(d.BaseURL, "/") + "/arquivos/" + strings.Join(partes, "/")
}

// resolver impede que bucket/caminho escapem da raiz
func (d *Disco) resolver(bucket, caminho string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("bucket inválido: %q", bucket)
	}
	limpo := path.Clean("/" + caminho)
	return filepath.Join(d.Raiz, bucket, filepath.FromSlash(limpo)), nil
}
