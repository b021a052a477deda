package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/infoevent/notification-service/internal/domain"
)

func TestWelcomeBody(t *testing.T) {
	body := WelcomeBody(domain.NotificationRequest{Email: "a@b.com", FirstName: "Ada", LastName: "Lovelace"})

	assert.True(t, strings.HasPrefix(body, "Cher/Chère Ada Lovelace,\n\n"))
	assert.Contains(t, body, "Nous sommes ravis de vous accueillir dans notre communauté.")
	assert.True(t, strings.HasSuffix(body, "Cordialement,\n\nInfoEvent"))
}

func TestWelcomeBodyWithoutNames(t *testing.T) {
	body := WelcomeBody(domain.NotificationRequest{Email: "a@b.com"})

	assert.True(t, strings.HasPrefix(body, "Cher/Chère  ,\n\n"))
	assert.NotContains(t, body, "<")
}

func TestWelcomeBodyIsDeterministic(t *testing.T) {
	req := domain.NotificationRequest{Email: "a@b.com", FirstName: "Ada"}
	assert.Equal(t, WelcomeBody(req), WelcomeBody(req))
}

func TestConfirmationBodyPlaceholders(t *testing.T) {
	body := ConfirmationBody(domain.NotificationRequest{Email: "a@b.com"})

	assert.Contains(t, body, "compter parmi nous pour l'événement.")
	assert.Contains(t, body, "- Nom de l'événement : l'événement\n")
	assert.Contains(t, body, "- Date et heure : la date\n")
	assert.Contains(t, body, "- Lieu : le lieu\n")
	assert.Contains(t, body, "- Type de billet : le type de billet\n")
	assert.Contains(t, body, "- Montant : le montant\n")
}

func TestConfirmationBodyPopulated(t *testing.T) {
	req := domain.NotificationRequest{
		Email:      "a@b.com",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		EventName:  "Finale 100m",
		DateTime:   "2024-08-04 21:50",
		Location:   "Saint-Denis",
		TicketType: "Catégorie A",
		Price:      "980 EUR",
	}
	body := ConfirmationBody(req)

	assert.True(t, strings.HasPrefix(body, "Cher/Chère Ada Lovelace,"))
	assert.Contains(t, body, "pour Finale 100m.")
	assert.Contains(t, body, "- Nom de l'événement : Finale 100m\n")
	assert.Contains(t, body, "- Date et heure : 2024-08-04 21:50\n")
	assert.Contains(t, body, "- Lieu : Saint-Denis\n")
	assert.Contains(t, body, "- Type de billet : Catégorie A\n")
	assert.Contains(t, body, "- Montant : 980 EUR\n")
	assert.NotContains(t, body, PlaceholderPrice)
	assert.True(t, strings.HasSuffix(body, "InfoEvent"))
}

func TestConfirmationBodyDetailOrder(t *testing.T) {
	body := ConfirmationBody(domain.NotificationRequest{Email: "a@b.com"})

	labels := []string{"- Nom de l'événement", "- Date et heure", "- Lieu", "- Type de billet", "- Montant"}
	last := -1
	for _, l := range labels {
		idx := strings.Index(body, l)
		assert.Greater(t, idx, last, "label %q out of order", l)
		last = idx
	}
}
