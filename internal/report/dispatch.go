package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
)

// Namer resolves a human-readable company name for a symbol. Implementations
// fall back to the symbol itself when the lookup fails.
type Namer interface {
	DisplayName(ctx context.Context, symbol string) string
}

// Attachment is a named file carried by a Message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is what a Mailer sends.
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer delivers a message and returns the provider message id, which may
// be empty.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Dispatcher emails a rendered export to the requester.
type Dispatcher struct {
	namer  Namer
	mailer Mailer
	from   string
}

func NewDispatcher(namer Namer, mailer Mailer, from string) *Dispatcher {
	return &Dispatcher{namer: namer, mailer: mailer, from: from}
}

// AttachmentName returns the file name used for a symbol's export.
func AttachmentName(symbol string) string {
	return symbol + "_stock_data.csv"
}

// Dispatch sends export to email as a single CSV attachment. The subject is
// the symbol's display name. Transport failures are returned as Delivery
// errors; configuration errors from the transport are passed through as is.
func (d *Dispatcher) Dispatch(ctx context.Context, email, symbol string, start, end time.Time, export string) (*DeliveryResult, error) {
	subject := d.namer.DisplayName(ctx, symbol)

	msg := Message{
		From:    d.from,
		To:      email,
		Subject: subject,
		Body:    fmt.Sprintf("Historical stock data from %s to %s", start.Format(dateFormat), end.Format(dateFormat)),
		Attachments: []Attachment{
			{Filename: AttachmentName(symbol), Content: []byte(export)},
		},
	}

	id, err := d.mailer.Send(ctx, msg)
	if err != nil {
		if apperror.Is(err, apperror.Configuration) {
			return nil, err
		}
		return nil, apperror.Wrap(apperror.Delivery, "send report", err)
	}

	slog.Info("report sent", "symbol", symbol, "to", email, "messageID", id)
	return &DeliveryResult{Delivered: true, MessageID: id}, nil
}
