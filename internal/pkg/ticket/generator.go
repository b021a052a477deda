package ticket

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/infoevent/notification-service/internal/domain"
)

const (
	lineHeight  = 10
	imageHeight = 80
)

// Generator renders ticket PDFs.
type Generator struct{}

// NewGenerator creates a new ticket generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the single-page ticket for req. Errors are always
// *domain.GenerationError.
func (g *Generator) Generate(ctx context.Context, req domain.NotificationRequest) ([]byte, error) {
	layout, err := BuildLayout(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.GenerationError{Reason: domain.ReasonAssemblyFailed, Err: err}
	}
	doc, err := render(layout)
	if err != nil {
		return nil, &domain.GenerationError{Reason: domain.ReasonAssemblyFailed, Err: err}
	}
	return doc, nil
}

func render(layout Layout) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("pdf renderer panic: %v", r)
		}
	}()

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(20).
		WithTopMargin(20).
		WithRightMargin(20).
		WithTitle("Billet", true).
		WithCreator("InfoEvent", true).
		Build()
	m := maroto.New(cfg)

	rows := make([]core.Row, 0, len(layout.Lines)+1)
	for _, line := range layout.Lines {
		style := lineStyle(line)
		rows = append(rows, text.NewRow(lineHeight, line.String(), props.Text{
			Size:  12,
			Top:   2,
			Style: style,
		}))
	}
	if layout.Image != nil {
		rows = append(rows, image.NewFromBytesRow(imageHeight, layout.Image.Bytes, layout.Image.Extension, props.Rect{
			Center:  true,
			Percent: 90,
		}))
	}
	m.AddRows(rows...)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	b := doc.GetBytes()
	if len(b) == 0 {
		return nil, fmt.Errorf("pdf renderer returned an empty document")
	}
	return b, nil
}

// lineStyle sets the holder's name in bold.
func lineStyle(l Line) fontstyle.Type {
	if l.Label == LabelFullName {
		return fontstyle.Bold
	}
	return fontstyle.Normal
}
