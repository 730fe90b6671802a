package email

import (
	"bytes"
	htmltpl "html/template"
	texttpl "text/template"
)

type template struct {
	subject string
	html    *htmltpl.Template
	text    *texttpl.Template
}

func mustTemplate(name, subject, html, text string) template {
	return template{
		subject: subject,
		html:    htmltpl.Must(htmltpl.New(name).Parse(html)),
		text:    texttpl.Must(texttpl.New(name).Parse(text)),
	}
}

func (t template) render(to string, vars any) (Message, error) {
	var h, x bytes.Buffer
	if err := t.html.Execute(&h, vars); err != nil {
		return Message{}, err
	}
	if err := t.text.Execute(&x, vars); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: t.subject, HTMLBody: h.String(), TextBody: x.String()}, nil
}

// ResetVars son las variables del correo de reset.
type ResetVars struct {
	Name      string
	Link      string
	TTLMinute int
}

// WelcomeVars son las variables del correo de bienvenida.
type WelcomeVars struct {
	Name   string
	Tenant string
	Link   string
}

var resetTemplate = mustTemplate("reset", "Restablecer tu contraseña",
	`<p>Hola {{.Name}},</p>
<p>Recibimos un pedido para restablecer tu contraseña. El enlace vence en {{.TTLMinute}} minutos.</p>
<p><a href="{{.Link}}">Restablecer contraseña</a></p>
<p>Si no lo pediste, ignorá este correo.</p>`,
	`Hola {{.Name}},

Recibimos un pedido para restablecer tu contraseña. El enlace vence en {{.TTLMinute}} minutos:

{{.Link}}

Si no lo pediste, ignorá este correo.
`)

var welcomeTemplate = mustTemplate("welcome", "Bienvenido a TeamNest",
	`<p>Hola {{.Name}},</p>
<p>Tu organización <strong>{{.Tenant}}</strong> ya está lista.</p>
<p><a href="{{.Link}}">Ingresar</a></p>`,
	`Hola {{.Name}},

Tu organización {{.Tenant}} ya está lista. Ingresá en {{.Link}}
`)
