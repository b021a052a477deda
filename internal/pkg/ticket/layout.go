package ticket

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/infoevent/notification-service/internal/domain"
)

// Field labels as printed on the ticket.
const (
	LabelFullName   = "Nom Complet"
	LabelEventName  = "Evenement"
	LabelDateTime   = "Date et heure"
	LabelTicketType = "Type de billet"
	LabelPrice      = "Prix"
	LabelVenueName  = "Lieu"
	LabelLocation   = "Adresse"
)

// Line is one labeled text line of the ticket.
type Line struct {
	Label string
	Value string
}

func (l Line) String() string {
	return l.Label + ": " + l.Value
}

// Image is the scannable code ready for embedding. Bytes are PNG or JPEG.
type Image struct {
	Bytes     []byte
	Extension extension.Type
	Width     int
	Height    int
}

// Layout is the content of a ticket page: text lines top to bottom, then
// the optional image.
type Layout struct {
	Lines []Line
	Image *Image
}

// BuildLayout lists the present fields in their fixed order and decodes the
// QR code. The full name line needs both first and last name.
func BuildLayout(req domain.NotificationRequest) (Layout, error) {
	var layout Layout
	if name, ok := req.FullName(); ok {
		layout.Lines = append(layout.Lines, Line{LabelFullName, name})
	}
	for _, f := range []Line{
		{LabelEventName, req.EventName},
		{LabelDateTime, req.DateTime},
		{LabelTicketType, req.TicketType},
		{LabelPrice, req.Price},
		{LabelVenueName, req.VenueName},
		{LabelLocation, req.Location},
	} {
		if f.Value != "" {
			layout.Lines = append(layout.Lines, f)
		}
	}

	if !req.HasQRCode() {
		return layout, nil
	}
	img, err := decodeImage(req.QRCode)
	if err != nil {
		return Layout{}, &domain.GenerationError{Reason: domain.ReasonImageMalformed, Err: err}
	}
	layout.Image = img
	return layout, nil
}

// decodeImage fully decodes raw to make sure the bytes are a usable raster
// image. JPEG and 8-bit non-interlaced PNG are embedded as is; everything
// else is re-encoded as 8-bit PNG, the only other input the PDF writer takes.
func decodeImage(raw []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode qr code: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("decode qr code: empty %s image", format)
	}

	out := &Image{Width: bounds.Dx(), Height: bounds.Dy()}
	switch {
	case format == "jpeg":
		out.Bytes, out.Extension = raw, extension.Jpg
	case format == "png" && embeddablePNG(raw):
		out.Bytes, out.Extension = raw, extension.Png
	default:
		var buf bytes.Buffer
		if err := png.Encode(&buf, eightBit(img)); err != nil {
			return nil, fmt.Errorf("re-encode %s qr code: %w", format, err)
		}
		out.Bytes, out.Extension = buf.Bytes(), extension.Png
	}
	return out, nil
}

// IHDR field offsets from the start of a PNG stream.
const (
	pngBitDepthOffset  = 24
	pngInterlaceOffset = 28
)

// embeddablePNG reports whether raw has at most 8 bits per channel and no
// interlacing. raw must already have decoded as PNG.
func embeddablePNG(raw []byte) bool {
	if len(raw) <= pngInterlaceOffset {
		return false
	}
	return raw[pngBitDepthOffset] <= 8 && raw[pngInterlaceOffset] == 0
}

// eightBit returns img in a model that png.Encode writes with 8-bit samples.
func eightBit(img image.Image) image.Image {
	switch img.(type) {
	case *image.Gray, *image.Paletted, *image.NRGBA, *image.RGBA:
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
