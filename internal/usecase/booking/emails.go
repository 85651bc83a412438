package booking

import (
	"bytes"
	"html/template"
	"strings"

	domainBooking "marketlive/internal/domain/booking"
	"marketlive/internal/logger"
	"marketlive/internal/notify"

	"go.uber.org/zap"
)

var (
	receivedTmpl = template.Must(template.New("received").Parse(`
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #003366;">Booking Received</h1>
  <p>Dear {{.CustomerDetails.Name}},</p>
  <p>Your booking <strong>{{.BookingID}}</strong> has been received and is pending approval.</p>
  <div style="background: #f4f4f4; padding: 15px; border-radius: 8px; margin: 20px 0;">
    <p><strong>Origin:</strong> {{.PickupDetails.Address}}</p>
    <p><strong>Destination:</strong> {{.DeliveryDetails.Address}}</p>
  </div>
  <p>We will notify you once your shipment is fully approved.</p>
  <p>Best regards,<br/>The MarketLive Team</p>
</div>`))

	confirmedTmpl = template.Must(template.New("confirmed").Parse(`
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #003366;">Booking Confirmed!</h1>
  <p>Dear {{.Booking.CustomerDetails.Name}},</p>
  <p>Good news! Your booking <strong>{{.Booking.BookingID}}</strong> has been confirmed.</p>
  <p>Our team has verified your route and cargo details. A carrier has been assigned.</p>
  <p><strong>Next Steps:</strong> You can track your shipment live on our dashboard.</p>
  <a href="{{.DashboardURL}}" style="display:inline-block; background:#003366; color:white; padding:10px 20px; text-decoration:none; border-radius:5px; margin-top:20px;">View Dashboard</a>
</div>`))

	approvedTmpl = template.Must(template.New("approved").Parse(
		`<div style="font-family: sans-serif;"><h1 style="color: #22c55e;">Booking Approved!</h1><p>Your booking {{.BookingID}} has been approved.</p></div>`))

	rejectedTmpl = template.Must(template.New("rejected").Parse(
		`<div style="font-family: sans-serif;"><h1 style="color: #ef4444;">Booking Could Not Be Processed</h1><p>Reason: {{.Reason}}</p></div>`))
)

func receivedEmail(b *domainBooking.Booking) notify.EmailPayload {
	return notify.EmailPayload{
		To:      b.CustomerDetails.Email,
		Subject: "Booking Confirmation: " + b.BookingID,
		HTML:    render(receivedTmpl, b),
	}
}

func confirmedEmail(b *domainBooking.Booking, appURL string) notify.EmailPayload {
	data := struct {
		Booking      *domainBooking.Booking
		DashboardURL string
	}{
		Booking:      b,
		DashboardURL: strings.TrimRight(appURL, "/") + "/dashboard",
	}
	return notify.EmailPayload{
		To:      b.CustomerDetails.Email,
		Subject: "Booking Confirmed: " + b.BookingID,
		HTML:    render(confirmedTmpl, data),
	}
}

func approvedEmail(b *domainBooking.Booking) notify.EmailPayload {
	return notify.EmailPayload{
		To:      b.CustomerDetails.Email,
		Subject: "Booking Approved: " + b.BookingID,
		HTML:    render(approvedTmpl, b),
	}
}

func rejectedEmail(b *domainBooking.Booking, reason string) notify.EmailPayload {
	return notify.EmailPayload{
		To:      b.CustomerDetails.Email,
		Subject: "Booking Update: " + b.BookingID,
		HTML:    render(rejectedTmpl, struct{ Reason string }{reason}),
	}
}

func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		logger.Error("Failed to render email template",
			zap.String("template", t.Name()),
			zap.Error(err),
		)
		return ""
	}
	return strings.TrimSpace(buf.String())
}
