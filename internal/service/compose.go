package service

import (
	"fmt"
	"text/template"

	"github.com/infoevent/notification-service/internal/domain"
	"github.com/infoevent/notification-service/internal/pkg/templaterender"
)

const (
	WelcomeSubject      = "Bienvenue sur la billeterie des J.0 2024 !"
	ConfirmationSubject = "Confirmation de votre achat de billet"
	TicketFileName      = "ticket.pdf"
	TicketContentType   = "application/pdf"
)

// Placeholders substituted into the confirmation body for absent fields.
const (
	PlaceholderEventName  = "l'événement"
	PlaceholderDateTime   = "la date"
	PlaceholderLocation   = "le lieu"
	PlaceholderTicketType = "le type de billet"
	PlaceholderPrice      = "le montant"
)

var welcomeTemplate = templaterender.MustParse("welcome",
	"Cher/Chère {{.FirstName}} {{.LastName}},"+
		"\n\nNous sommes ravis de vous accueillir dans notre communauté."+
		"\n\nCordialement,"+
		"\n\nInfoEvent")

var confirmationTemplate = templaterender.MustParse("confirmation",
	"Cher/Chère {{.FirstName}} {{.LastName}},"+
		"\n\nNous vous remercions pour votre achat et sommes ravis de vous compter parmi nous pour {{.EventName}}."+
		"\n\nVeuillez trouver ci-joint votre billet pour l'événement. Les détails de votre achat sont les suivants :\n"+
		"\n- Nom de l'événement : {{.EventName}}"+
		"\n- Date et heure : {{.DateTime}}"+
		"\n- Lieu : {{.Location}}"+
		"\n- Type de billet : {{.TicketType}}"+
		"\n- Montant : {{.Price}}"+
		"\n\nNous vous conseillons d'arriver un peu en avance pour éviter toute attente inutile et pour faciliter le contrôle d'accès."+
		"\n\nSi vous avez des questions ou si vous avez besoin d'informations supplémentaires, n'hésitez pas à nous contacter."+
		"\n\nNous avons hâte de vous accueillir !"+
		"\n\nCordialement,"+
		"\n\nInfoEvent")

type bodyData struct {
	FirstName  string
	LastName   string
	EventName  string
	DateTime   string
	Location   string
	TicketType string
	Price      string
}

// WelcomeBody returns the greeting sent on registration. Absent names render
// as empty strings.
func WelcomeBody(req domain.NotificationRequest) string {
	return mustRender(welcomeTemplate, bodyData{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
}

// ConfirmationBody returns the purchase confirmation text. Every absent
// purchase detail is replaced by its placeholder phrase.
func ConfirmationBody(req domain.NotificationRequest) string {
	return mustRender(confirmationTemplate, bodyData{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		EventName:  orDefault(req.EventName, PlaceholderEventName),
		DateTime:   orDefault(req.DateTime, PlaceholderDateTime),
		Location:   orDefault(req.Location, PlaceholderLocation),
		TicketType: orDefault(req.TicketType, PlaceholderTicketType),
		Price:      orDefault(req.Price, PlaceholderPrice),
	})
}

// Both templates only reference fields of bodyData and write to a buffer,
// so execution cannot fail at runtime.
func mustRender(t *template.Template, data bodyData) string {
	out, err := templaterender.Render(t, data)
	if err != nil {
		panic(fmt.Sprintf("render %s: %v", t.Name(), err))
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
