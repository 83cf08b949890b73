package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

// ReceiptData is everything the payment receipt shows. Amounts come in
// pre-formatted so the renderer stays currency-agnostic.
type ReceiptData struct {
	ReceiptNumber string
	IssuedAt      string
	PaidAt        string
	Period        string

	CondoName    string
	CondoAddress string
	CondoEmail   string

	ResidentName string
	UnitCode     string

	Description string
	Amount      string
	Method      string
	Reference   string
}

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
