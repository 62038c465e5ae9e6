// Package vision asks a multimodal model to diagnose an ERP screenshot.
package vision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/zen-systems/erpassist/pkg/adapter"
)

var (
	// ErrImageNotFound is returned when the image path does not exist.
	ErrImageNotFound = errors.New("image not found")
	// ErrUnsupportedImage is returned for data that is not a raster image.
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// rasterTypes are the image formats forwarded to the model.
var rasterTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/heic",
	"image/heif",
}

// NotFoundMessage is the user-facing text for ErrImageNotFound.
const NotFoundMessage = "Erro: O caminho da imagem não foi encontrado."

const preamble = `Analise a imagem e a mensagem do usuário a seguir. A imagem é uma captura de tela do nosso ERP.
Descreva o que aparece na tela, aponte mensagens de erro ou campos relevantes e explique qual pode ser o problema do usuário considerando a mensagem dele.

Mensagem do usuário: '%s'`

// Analyzer submits screenshots to a vision-capable model.
type Analyzer struct {
	adapter adapter.Adapter
	model   string
	fs      afero.Fs
}

// NewAnalyzer creates an analyzer. fsys is used by Analyze to read images.
func NewAnalyzer(a adapter.Adapter, model string, fsys afero.Fs) *Analyzer {
	return &Analyzer{adapter: a, model: model, fs: fsys}
}

// Analyze reads the image at path and returns the model's diagnosis.
func (v *Analyzer) Analyze(ctx context.Context, path, question string) (string, error) {
	data, err := afero.ReadFile(v.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return v.AnalyzeImage(ctx, data, question)
}

// AnalyzeImage returns the model's diagnosis of an in-memory image. The
// response text is returned verbatim.
func (v *Analyzer) AnalyzeImage(ctx context.Context, data []byte, question string) (string, error) {
	if len(data) == 0 {
		return "", ErrImageNotFound
	}
	mime := mimetype.Detect(data)
	if !isRaster(mime) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime.String())
	}

	resp, err := v.adapter.Generate(ctx, v.model, adapter.Request{
		Prompt:      fmt.Sprintf(preamble, question),
		Images:      []adapter.Image{{MIMEType: mime.String(), Data: data}},
		Temperature: adapter.Temperature(0),
	})
	if err != nil {
		return "", fmt.Errorf("vision error: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("vision returned empty response")
	}
	return resp.Content, nil
}

func isRaster(mime *mimetype.MIME) bool {
	for _, t := range rasterTypes {
		if mime.Is(t) {
			return true
		}
	}
	return false
}
