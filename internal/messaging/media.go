package messaging

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultMimeType = "image/jpeg"
	DefaultFilename = "image.jpg"
)

// ImageInput is the payload accepted by SendImage. Implementations are
// RawBytes, WrappedImage and ImageFile.
type ImageInput interface {
	imageBytes() ([]byte, error)
}

// RawBytes is an image that is already in memory.
type RawBytes []byte

func (b RawBytes) imageBytes() ([]byte, error) {
	return b, nil
}

// WrappedImage defers to Extract for the raw bytes, e.g. a decoded image
// object that can re-encode itself.
type WrappedImage struct {
	Extract func() ([]byte, error)
}

func (w WrappedImage) imageBytes() ([]byte, error) {
	if w.Extract == nil {
		return nil, errors.New("wrapped image has no extractor")
	}
	data, err := w.Extract()
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract image bytes")
	}
	return data, nil
}

// ImageFile is read from disk when the message is sent.
type ImageFile string

func (f ImageFile) imageBytes() ([]byte, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read image file %s", string(f))
	}
	return data, nil
}

var supportedFamilies = []string{"image/", "video/", "audio/"}

// DetectMedia sniffs the MIME type and usual file extension of data from its
// byte signature. Content that is not image, video or audio yields an
// UnsupportedMediaError.
func DetectMedia(data []byte) (mimeType string, extension string, err error) {
	if len(data) == 0 {
		return "", "", &UnsupportedMediaError{}
	}

	mtype := mimetype.Detect(data)
	mimeType, _, _ = strings.Cut(mtype.String(), ";")
	mimeType = strings.TrimSpace(mimeType)

	for _, family := range supportedFamilies {
		if strings.HasPrefix(mimeType, family) {
			return mimeType, strings.TrimPrefix(mtype.Extension(), "."), nil
		}
	}
	return "", "", &UnsupportedMediaError{Detected: mimeType}
}
