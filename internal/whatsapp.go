package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Notificador envia avisos ao morador (encomenda triada, visitante liberado)
type Notificador interface {
	Notificar(ctx context.Context, telefone, mensagem string) error
}

var ErrWhatsAppNaoConfigurado = errors.New("integração WhatsApp não configurada (env vars)")

// WhatsApp envia mensagens pela API HTTP configurada em WHATSAPP_API_URL
type WhatsApp struct {
	URL    string
	Token  string
	Client *http.Client
}

func NovoWhatsApp(apiURL, apiToken string) *WhatsApp {
	return &WhatsApp{URL: apiURL, Token: apiToken, Client: &http.Client{Timeout: 10 * time.Second}}
}

// Envia mensagem WhatsApp via API
func (w *WhatsApp) Notificar(ctx context.Context, phone, message string) error {
	if w == nil || w.URL == "" || w.Token == "" {
		return ErrWhatsAppNaoConfigurado
	}
	phone = SanitizePhone(phone)
	if !IsValidPhone(phone) {
		return fmt.Errorf("telefone inválido: %s", MaskPhone(phone))
	}

	body := map[string]interface{}{
		"phone":   phone,
		"message": message,
	}
	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("erro ao criar requisição: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.Token)
	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("erro na requisição: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		log.Printf("[whatsapp] erro %d para %s: %s", resp.StatusCode, MaskPhone(phone), buf.String()) // só log interno
		return fmt.Errorf("falha no envio WhatsApp (status %d)", resp.StatusCode)
	}
	return nil
}

// avisar dispara a notificação sem bloquear nem falhar a operação principal
func avisar(n Notificador, telefone, mensagem string) {
	if n == nil || telefone == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := n.Notificar(ctx, telefone, mensagem); err != nil && !errors.Is(err, ErrWhatsAppNaoConfigurado) {
			log.Printf("[whatsapp] aviso para %s não enviado: %v", MaskPhone(telefone), err)
		}
	}()
}
