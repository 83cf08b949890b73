package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type marotoProvider struct{}

func New() Provider {
	return &marotoProvider{}
}

func (p *marotoProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	_ = ctx

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(12, "Comprobante de pago", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Comprobante: "+data.ReceiptNumber, props.Text{Top: 0}),
			text.New("Fecha de emision: "+data.IssuedAt, props.Text{Top: 4}),
			text.New("Fecha de pago: "+data.PaidAt, props.Text{Top: 8}),
			text.New("Periodo: "+data.Period, props.Text{Top: 12}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New(data.CondoName, props.Text{Style: fontstyle.Bold}),
			text.New(data.CondoAddress, props.Text{Top: 5}),
			text.New(data.CondoEmail, props.Text{Top: 14}),
		),
		col.New(6).Add(
			text.New("Residente", props.Text{Style: fontstyle.Bold}),
			text.New(data.ResidentName, props.Text{Top: 5}),
			text.New("Vivienda "+data.UnitCode, props.Text{Top: 9}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, data.Amount+" pagado el "+data.PaidAt, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(8, "Concepto", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Importe", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(15,
		text.NewCol(8, data.Description, props.Text{Size: 9}),
		text.NewCol(4, data.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Metodo de pago", props.Text{Size: 9}),
		text.NewCol(3, data.Method, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Referencia", props.Text{Size: 9}),
		text.NewCol(3, data.Reference, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, data.Amount, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
