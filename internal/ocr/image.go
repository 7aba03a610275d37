package ocr

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/rotisserie/eris"
)

// Validation errors are permanent: they fail the image, never the batch.
var (
	ErrImageTooLarge   = eris.New("ocr: image exceeds size limit")
	ErrUnsupportedMIME = eris.New("ocr: unsupported image type")
	ErrImageDecode     = eris.New("ocr: image decode failed")
)

// PreprocessOptions toggles the normalization steps applied before
// recognition.
type PreprocessOptions struct {
	MaxBytes    int64
	AllowedMIME []string
	Greyscale   bool
	Contrast    bool
	Sharpen     bool
}

// Preprocessor validates and normalizes images for the recognition
// engine, caching processed output by content hash.
type Preprocessor struct {
	opts  PreprocessOptions
	cache *imageCache
}

// NewPreprocessor creates a Preprocessor with a bounded cache.
func NewPreprocessor(opts PreprocessOptions, cacheCapacity int) *Preprocessor {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 * 1024 * 1024
	}
	if len(opts.AllowedMIME) == 0 {
		opts.AllowedMIME = []string{"image/jpeg", "image/png"}
	}
	return &Preprocessor{opts: opts, cache: newImageCache(cacheCapacity)}
}

// Validate checks format and size limits without decoding pixels.
func (p *Preprocessor) Validate(data []byte) error {
	if int64(len(data)) > p.opts.MaxBytes {
		return eris.Wrapf(ErrImageTooLarge, "ocr: %d bytes (limit %d)", len(data), p.opts.MaxBytes)
	}
	mime := http.DetectContentType(data)
	for _, allowed := range p.opts.AllowedMIME {
		if mime == allowed {
			return nil
		}
	}
	return eris.Wrapf(ErrUnsupportedMIME, "ocr: detected %s", mime)
}

// Process validates and normalizes the image, returning JPEG bytes ready
// for recognition. Identical inputs hit the content-hash cache.
func (p *Preprocessor) Process(data []byte) ([]byte, error) {
	if err := p.Validate(data); err != nil {
		return nil, err
	}

	key := contentHash(data)
	if cached, ok := p.cache.get(key); ok {
		return cached, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(ErrImageDecode, err.Error())
	}

	grey := toGreyscale(img)
	if p.opts.Contrast {
		stretchContrast(grey)
	}
	if p.opts.Sharpen {
		grey = sharpen(grey)
	}

	var out image.Image = grey
	if !p.opts.Greyscale {
		out = img
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 95}); err != nil {
		return nil, eris.Wrap(err, "ocr: encode processed image")
	}

	processed := buf.Bytes()
	p.cache.put(key, processed)
	return processed, nil
}

// toGreyscale converts any image to 8-bit grey. Luminance-weighted
// conversion is what stdlib color.GrayModel already does.
func toGreyscale(img image.Image) *image.Gray {
	b := img.Bounds()
	grey := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			grey.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return grey
}

// stretchContrast linearly maps the observed intensity range onto the
// full 0-255 range in place. Flat images are left untouched.
func stretchContrast(img *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, px := range img.Pix {
		if px < lo {
			lo = px
		}
		if px > hi {
			hi = px
		}
	}
	if hi <= lo {
		return
	}
	scale := 255.0 / float64(hi-lo)
	for i, px := range img.Pix {
		img.Pix[i] = uint8(float64(px-lo) * scale)
	}
}

// sharpen applies a 3x3 unsharp kernel. Border pixels are copied as is.
func sharpen(img *image.Gray) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	copy(out.Pix, img.Pix)

	kernel := [3][3]int{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			sum := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sum += int(img.GrayAt(x+kx, y+ky).Y) * kernel[ky+1][kx+1]
				}
			}
			if sum < 0 {
				sum = 0
			}
			if sum > 255 {
				sum = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(sum)})
		}
	}
	return out
}
