package email

import "context"

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendOrderConfirmation(ctx context.Context, to string, data OrderConfirmation) error
	SendPaymentFailed(ctx context.Context, to string, data PaymentFailed) error
}
