package capture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"cdfinder/internal/services/llm"
)

const maxImageBytes = 20 << 20

// FromFile reads an image from disk. The MIME type is sniffed from content.
func FromFile(path string) (llm.Image, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return llm.Image{}, errors.New("read image: path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return llm.Image{}, fmt.Errorf("read image: %w", err)
	}
	if info.IsDir() {
		return llm.Image{}, fmt.Errorf("read image: %s is a directory", path)
	}
	if info.Size() > maxImageBytes {
		return llm.Image{}, fmt.Errorf("read image: %s exceeds %d bytes", path, maxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return llm.Image{}, fmt.Errorf("read image: %w", err)
	}
	return FromBytes(data)
}

// FromBytes wraps raw image bytes, sniffing the MIME type.
func FromBytes(data []byte) (llm.Image, error) {
	if len(data) == 0 {
		return llm.Image{}, errors.New("image is empty")
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return llm.Image{}, fmt.Errorf("unsupported image content %q", mime)
	}
	return llm.Image{MIME: mime, Data: data}, nil
}

// ParseDataURL decodes a "data:image/...;base64,..." string. The MIME type is
// png when the prefix names image/png and jpeg otherwise.
func ParseDataURL(value string) (llm.Image, error) {
	value = strings.TrimSpace(value)
	prefix, payload, ok := strings.Cut(value, ",")
	if !ok || !strings.HasPrefix(prefix, "data:") {
		return llm.Image{}, errors.New("parse data url: missing data: prefix")
	}
	if !strings.HasSuffix(prefix, ";base64") {
		return llm.Image{}, errors.New("parse data url: only base64 payloads are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return llm.Image{}, fmt.Errorf("parse data url: %w", err)
	}
	if len(data) == 0 {
		return llm.Image{}, errors.New("parse data url: empty payload")
	}
	mime := "image/jpeg"
	if strings.Contains(prefix, "image/png") {
		mime = "image/png"
	}
	return llm.Image{MIME: mime, Data: data}, nil
}

// Load accepts either a data URL or a file path.
func Load(ref string) (llm.Image, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "data:") {
		return ParseDataURL(ref)
	}
	return FromFile(ref)
}
