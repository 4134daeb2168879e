package email

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/shopspring/decimal"
)

// Links are the client-side URLs embedded in outbound emails.
type Links struct {
	ReviewConfirmURL     string
	ReservationManageURL string
}

type Mailer struct {
	from     string
	password string
	host     string
	port     string
	links    Links
}

func New(from, password, host, port string, links Links) *Mailer {
	return &Mailer{
		from:     from,
		password: password,
		host:     host,
		port:     port,
		links:    links,
	}
}

func (m *Mailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)

	var auth smtp.Auth
	if m.password != "" {
		auth = smtp.PlainAuth("", m.from, m.password, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering email template: %w", err)
	}
	return buf.String(), nil
}

// OrderLine mirrors one ordered product for the confirmation email.
type OrderLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

var orderTmpl = template.Must(template.New("order").Parse(
	`Hello {{.Name}},

We received your order {{.Code}}. It will be ready for pickup at {{.PickupTime}}.

{{range .Lines}}  {{.Quantity}} x {{.Name}} ({{.UnitPrice}} lei)
{{end}}
Total: {{.Total}} lei

Keep the code {{.Code}}: it lets you review the products you ordered.

La Taverna
`))

func (m *Mailer) OrderConfirmation(to, name, code, pickupTime string, lines []OrderLine, total decimal.Decimal) error {
	body, err := render(orderTmpl, struct {
		Name       string
		Code       string
		PickupTime string
		Lines      []OrderLine
		Total      decimal.Decimal
	}{name, code, pickupTime, lines, total})
	if err != nil {
		return err
	}
	return m.send(to, "Your order "+code, body)
}

var reservationAcceptedTmpl = template.Must(template.New("resAccepted").Parse(
	`Hello {{.Name}},

Your reservation for {{.Persons}} on {{.Date}} at {{.Time}} is confirmed.
You will be seated at table {{.Table}}.

Need to change or cancel? Use this link:
{{.ManageURL}}/{{.ID}}?code={{.Code}}

Your reservation code is {{.Code}}: it also lets you leave us a review.

La Taverna
`))

func (m *Mailer) ReservationAccepted(to, name, date, tm string, persons, table int, id int64, code string) error {
	body, err := render(reservationAcceptedTmpl, struct {
		Name      string
		Date      string
		Time      string
		Persons   int
		Table     int
		ID        int64
		Code      string
		ManageURL string
	}{name, date, tm, persons, table, id, code, m.links.ReservationManageURL})
	if err != nil {
		return err
	}
	return m.send(to, "Reservation confirmed", body)
}

var reservationRejectedTmpl = template.Must(template.New("resRejected").Parse(
	`Hello {{.Name}},

Unfortunately we cannot honor your reservation on {{.Date}} at {{.Time}}.
Please try another date or time.

La Taverna
`))

func (m *Mailer) ReservationRejected(to, name, date, tm string) error {
	body, err := render(reservationRejectedTmpl, struct {
		Name string
		Date string
		Time string
	}{name, date, tm})
	if err != nil {
		return err
	}
	return m.send(to, "About your reservation", body)
}

var reviewConfirmTmpl = template.Must(template.New("review").Parse(
	`Hello {{.Name}},

Please confirm your review by opening this link:
{{.ConfirmURL}}?token={{.Token}}

If you did not write a review, ignore this email.

La Taverna
`))

func (m *Mailer) ReviewConfirmation(to, name, token string) error {
	body, err := render(reviewConfirmTmpl, struct {
		Name       string
		Token      string
		ConfirmURL string
	}{name, token, m.links.ReviewConfirmURL})
	if err != nil {
		return err
	}
	return m.send(to, "Confirm your review", body)
}
