package layout

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/disintegration/imaging"

	"billing/internal/logger"
)

// maxLogoBytes caps what a logo fetch will read.
const maxLogoBytes = 8 << 20

// LogoSource fetches the raw image bytes a firm's logo reference points to.
type LogoSource interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// LogoFunc adapts a function to LogoSource.
type LogoFunc func(ctx context.Context, ref string) ([]byte, error)

func (f LogoFunc) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// StockSource resolves data URIs, http(s) URLs and local file paths.
type StockSource struct {
	Client *http.Client
}

func (s StockSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, errors.New("empty logo reference")
	case strings.HasPrefix(ref, "data:image/"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return s.fetchHTTP(ctx, ref)
	default:
		return os.ReadFile(ref)
	}
}

func decodeDataURI(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(ref, ",")
	if !ok {
		return nil, errors.New("data uri without payload")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}
	return data, nil
}

func (s StockSource) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch logo: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
}

// Logo is a decoded logo scaled to fit the logo box.
type Logo struct {
	Name string
	PNG  []byte
	W, H float64 // Drawn size in points
}

// PrepareLogo decodes data, scales it to fit within maxW×maxH points
// keeping its aspect ratio, and re-encodes it as PNG.
func PrepareLogo(data []byte, maxW, maxH float64) (*Logo, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("decode logo: empty image")
	}
	scale := min(maxW/float64(b.Dx()), maxH/float64(b.Dy()))

	// Keep up to 3 pixels per point so the print stays sharp.
	px, py := int(maxW*3), int(maxH*3)
	if b.Dx() > px || b.Dy() > py {
		img = imaging.Fit(img, px, py, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	sum := sha1.Sum(data)
	return &Logo{
		Name: "logo-" + hex.EncodeToString(sum[:8]),
		PNG:  buf.Bytes(),
		W:    float64(b.Dx()) * scale,
		H:    float64(b.Dy()) * scale,
	}, nil
}

// drawLogo places logo with its top-right corner at (xRight, yTop).
func drawLogo(c Canvas, logo *Logo, xRight, yTop float64) {
	if logo == nil {
		return
	}
	// A rejected image just leaves the corner empty.
	if err := c.Image(logo.Name, logo.PNG, xRight-logo.W, yTop-logo.H, logo.W, logo.H); err != nil {
		log := logger.WithComponent("layout")
		log.Warn().Err(err).Str("logo", logo.Name).Msg("Logo not embedded")
	}
}
