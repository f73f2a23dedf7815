package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrUndecodable means the source is not an image any renderer could read.
var ErrUndecodable = errors.New("source is not a decodable image")

type Renderer interface {
	// Render scales src to width pixels wide, keeping the aspect ratio.
	Render(ctx context.Context, src []byte, width int) ([]byte, error)
}

// ImagingRenderer keeps the source format when imaging can encode it and
// falls back to JPEG otherwise.
type ImagingRenderer struct{}

func (ImagingRenderer) Render(ctx context.Context, src []byte, width int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, name, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		format = imaging.JPEG
	}

	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
