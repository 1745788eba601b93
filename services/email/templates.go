package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// OrderConfirmation is the data behind the order placed email.
type OrderConfirmation struct {
	Name          string
	OrderID       string
	Total         string
	PaymentMethod string
	PaymentStatus string
}

type PaymentFailed struct {
	Name  string
	Total string
}

const layout = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>MOCCA</title>
</head>
<body style="margin:0;padding:0;background:#f4f4f4;font-family:Helvetica,Arial,sans-serif;">
    <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
        <tr>
            <td align="center" style="padding:32px 16px;">
                <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:6px;">
                    <tr>
                        <td style="padding:24px 32px;background:#111111;color:#ffffff;font-size:22px;letter-spacing:4px;">MOCCA</td>
                    </tr>
                    <tr>
                        <td style="padding:32px;color:#222222;font-size:15px;line-height:1.6;">
                            {{template "content" .}}
                        </td>
                    </tr>
                    <tr>
                        <td style="padding:16px 32px;color:#888888;font-size:12px;">You are receiving this email because you shopped at MOCCA.</td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`

var (
	orderConfirmationTemplate = newTemplate("order", `
<h2 style="margin-top:0;">Thank you for your order, {{.Name}}!</h2>
<p>Your order <strong>#{{.OrderID}}</strong> has been placed.</p>
<table role="presentation" cellpadding="4" cellspacing="0">
    <tr><td>Total</td><td><strong>{{.Total}}</strong></td></tr>
    <tr><td>Payment method</td><td>{{.PaymentMethod}}</td></tr>
    <tr><td>Payment status</td><td>{{.PaymentStatus}}</td></tr>
</table>
<p>We will let you know once it ships.</p>`)

	paymentFailedTemplate = newTemplate("failed", `
<h2 style="margin-top:0;">Your payment did not go through</h2>
<p>Hi {{.Name}}, we could not confirm your payment of <strong>{{.Total}}</strong>.</p>
<p>Your order has been saved with the status "Payment Failed". You can retry the payment from the order details page in your account.</p>`)
)

// newTemplate wraps content in the shared layout; the result executes as name.
func newTemplate(name, content string) *template.Template {
	t := template.Must(template.New(name).Parse(layout))
	template.Must(t.New("content").Parse(content))
	return t
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, t.Name(), data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func RenderOrderConfirmation(data OrderConfirmation) (subject, body string, err error) {
	body, err = render(orderConfirmationTemplate, data)
	if err != nil {
		return "", "", err
	}
	subject = "Your MOCCA order has been placed"
	if data.OrderID != "" {
		subject = fmt.Sprintf("Your MOCCA order #%s has been placed", data.OrderID)
	}
	return subject, body, nil
}

func RenderPaymentFailed(data PaymentFailed) (subject, body string, err error) {
	body, err = render(paymentFailedTemplate, data)
	if err != nil {
		return "", "", err
	}
	return "Payment failed for your MOCCA order", body, nil
}
