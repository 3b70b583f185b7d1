package notify

import (
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"

	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const senderName = "Roots to Farm"

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends order emails over SMTP. Without a host it only logs.
type Mailer struct {
	from      string
	sender    sender
	confirm   *template.Template
	farmerNew *template.Template
}

func parse(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

func newMailer(from string, s sender) *Mailer {
	return &Mailer{
		from:      from,
		sender:    s,
		confirm:   parse("order_confirmation.html"),
		farmerNew: parse("farmer_order.html"),
	}
}

func NewMailer(cfg *global.Config) (*Mailer, error) {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, order emails will only be logged")
		return newMailer(from, nil), nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPass),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create smtp client")
	}
	return newMailer(from, client), nil
}

type emailData struct {
	Heading string
	Name    string
	ShortID string
	Date    string
	Total   string
	Items   []models.OrderItem
}

func money(items []models.OrderItem) string {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total.StringFixed(2)
}

func (m *Mailer) send(ctx context.Context, to, subject string, tmpl *template.Template, data emailData) error {
	if m.sender == nil {
		log.WithFields(log.Fields{"to": to, "subject": subject}).Info("Email not sent, mailer disabled")
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(senderName, m.from); err != nil {
		return errors.Wrap(err, "set sender")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "set recipient")
	}
	msg.Subject(subject)
	if err := msg.SetBodyHTMLTemplate(tmpl.Lookup("layout"), data); err != nil {
		return errors.Wrap(err, "render email")
	}

	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "send email to %s", to)
	}
	log.WithField("to", to).Info("Email sent")
	return nil
}

// OrderConfirmation tells the buyer their order was received.
func (m *Mailer) OrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error {
	subject := fmt.Sprintf("Order Confirmation - #%s", order.ShortID())
	return m.send(ctx, user.Email, subject, m.confirm, emailData{
		Heading: "Order Confirmation",
		Name:    user.Name,
		ShortID: order.ShortID(),
		Date:    order.CreatedAt.Format("January 2, 2006"),
		Total:   decimal.NewFromFloat(order.TotalAmount).StringFixed(2),
	})
}

// FarmerOrderNotification tells a farmer which of their products were ordered.
func (m *Mailer) FarmerOrderNotification(ctx context.Context, farmer *models.User, order *models.Order, items []models.OrderItem) error {
	subject := fmt.Sprintf("New Order Received - #%s", order.ShortID())
	return m.send(ctx, farmer.Email, subject, m.farmerNew, emailData{
		Heading: "New Order",
		Name:    farmer.Name,
		ShortID: order.ShortID(),
		Date:    order.CreatedAt.Format("January 2, 2006"),
		Total:   money(items),
		Items:   items,
	})
}
