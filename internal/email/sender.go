// Package email entrega los correos transaccionales (reset de password,
// bienvenida). El transporte es un Sender: SMTP en producción, log en dev.
package email

import "context"

// Message es un correo multipart/alternative.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender envía un mensaje.
type Sender interface {
	Send(ctx context.Context, m Message) error
}
