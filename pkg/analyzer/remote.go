package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

// DownloadTimeout bounds a screenshot download when ctx has no deadline
const DownloadTimeout = 30 * time.Second

// maxDownloadBytes caps the size of a downloaded screenshot
const maxDownloadBytes = 64 << 20

// IsURL reports whether source is an http or https URL
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// LoadSource loads source from the network when it is a URL and from disk otherwise
func (l *ImageLoader) LoadSource(ctx context.Context, source string) (*Image, error) {
	if IsURL(source) {
		return l.LoadImageFromURL(ctx, source)
	}
	return l.LoadImage(source)
}

// LoadImageFromURL downloads and decodes a screenshot. Every failure is a *types.LoadError.
func (l *ImageLoader) LoadImageFromURL(ctx context.Context, imageURL string) (*Image, error) {
	data, err := download(ctx, imageURL)
	if err != nil {
		return nil, &types.LoadError{Path: imageURL, Stage: "load", Err: err}
	}
	img, err := l.decode(data, imageURL)
	if err != nil {
		return nil, &types.LoadError{Path: imageURL, Stage: "load", Err: err}
	}
	return img, nil
}

func download(ctx context.Context, imageURL string) ([]byte, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsed.Scheme)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DownloadTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ux-analyzer/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("image larger than %d bytes", maxDownloadBytes)
	}
	return data, nil
}
