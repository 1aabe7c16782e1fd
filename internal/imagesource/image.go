package imagesource

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNoImage indicates that a request carried no image at all.
	ErrNoImage = errors.New("no image")
	// ErrNotAnImage indicates that the payload is not a recognised image format.
	ErrNotAnImage = errors.New("payload is not an image")
)

// Image is a single captured frame ready to be sent to a model.
type Image struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether the image carries no bytes.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL renders the image as a data URL, the form chat-completion APIs accept.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// FromBytes sniffs the content type of raw bytes and rejects non-images.
func FromBytes(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrNoImage
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotAnImage, mt.String())
	}
	return Image{Data: data, MIMEType: mt.String()}, nil
}

// DecodeDataURL accepts "data:image/jpeg;base64,...." or a bare base64 string.
// The declared media type is ignored in favour of the sniffed one.
func DecodeDataURL(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, ErrNoImage
	}
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return Image{}, fmt.Errorf("malformed data URL: missing payload")
		}
		header := s[len("data:"):comma]
		if !strings.HasSuffix(header, ";base64") {
			return Image{}, fmt.Errorf("malformed data URL: only base64 payloads are supported")
		}
		s = s[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some encoders drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return Image{}, fmt.Errorf("invalid base64 image: %w", err)
		}
	}
	return FromBytes(data)
}
