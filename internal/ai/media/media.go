package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nulzo/care-assist/internal/httpclient"
)

// maxImageSize is the largest image we will inline for a vision provider.
const maxImageSize = 5 << 20

var ErrTooLarge = errors.New("image exceeds inline size limit")

type ImageData struct {
	MediaType string
	Data      string // Base64 encoded string
}

// Load takes an image URL (http/https or data URI) and returns the media type and
// base64 encoded data. Remote URLs are fetched with the given client.
func Load(ctx context.Context, client httpclient.HTTPClient, url string) (*ImageData, error) {
	if strings.HasPrefix(url, "data:") {
		return parseDataURI(url)
	}
	return fetchRemoteImage(ctx, client, url)
}

func parseDataURI(uri string) (*ImageData, error) {
	// format: data:[<media type>][;base64],<data>
	comma := strings.Index(uri, ",")
	if comma == -1 {
		return nil, fmt.Errorf("invalid data URI")
	}

	meta := uri[:comma]
	data := uri[comma+1:]

	mediaType := "text/plain"
	parts := strings.Split(meta, ";")
	if len(parts) > 0 && strings.HasPrefix(parts[0], "data:") {
		mediaType = parts[0][5:]
	}

	isBase64 := false
	for _, p := range parts {
		if p == "base64" {
			isBase64 = true
			break
		}
	}
	if !isBase64 {
		return nil, fmt.Errorf("only base64 data URIs are supported for images")
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("data URI is not an image: %s", mediaType)
	}

	return &ImageData{
		MediaType: mediaType,
		Data:      data,
	}, nil
}

func fetchRemoteImage(ctx context.Context, client httpclient.HTTPClient, url string) (*ImageData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &httpclient.TransportError{URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, &httpclient.TransportError{URL: url, Err: err}
	}
	if len(body) > maxImageSize {
		return nil, ErrTooLarge
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(body)
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}

	return &ImageData{
		MediaType: contentType,
		Data:      base64.StdEncoding.EncodeToString(body),
	}, nil
}
