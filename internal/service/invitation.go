package service

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"invitely/eventhub/internal/model"
)

// InvitationPayload is one addressed invitation. Nothing is delivered; the
// client hands payloads to whatever messaging channel it uses.
type InvitationPayload struct {
	GuestID   string `json:"guestId"`
	Phone     string `json:"phone"`
	Link      string `json:"link"`
	CardImage string `json:"cardImage,omitempty"`
	Message   string `json:"message"`
	GuestName string `json:"guestName,omitempty"`
	QRCode    string `json:"qrCode,omitempty"`
}

type invitationComposer struct {
	defaultMessage string
	qrSize         int
}

// GuestLink is the access link embedding a guest token.
func GuestLink(origin, token string) string {
	return strings.TrimRight(origin, "/") + "/guest/" + token
}

func (c invitationComposer) compose(event *model.Event, guest model.Guest, in SendInvitationsInput) (InvitationPayload, error) {
	link := GuestLink(in.Origin, guest.GuestToken)

	message := guest.CustomMessage
	if message == "" {
		message = in.Message
	}
	if message == "" {
		message = c.defaultMessage
	}
	message = strings.ReplaceAll(message, "{event}", event.Name)

	p := InvitationPayload{
		GuestID:   guest.ID,
		Phone:     guest.Phone,
		Link:      link,
		CardImage: in.CardImage,
	}
	if in.InvitationType == model.InvitationCustomized {
		p.GuestName = guest.CustomName
		if p.GuestName == "" {
			p.GuestName = guest.Username
		}
		message = strings.ReplaceAll(message, "{name}", p.GuestName)
	}
	p.Message = message

	if c.qrSize > 0 {
		png, err := qrcode.Encode(link, qrcode.Medium, c.qrSize)
		if err != nil {
			return InvitationPayload{}, fmt.Errorf("encode qr code: %w", err)
		}
		p.QRCode = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	}
	return p, nil
}
