//go:build !ocr

package ocr

import "errors"

// ErrTesseractNotCompiled is returned when the binary was built without the
// "ocr" tag. Rebuild with -tags ocr and libtesseract installed to enable it.
var ErrTesseractNotCompiled = errors.New("tesseract support not compiled in; rebuild with -tags ocr")

func newTesseract(Config) (Engine, error) {
	return nil, ErrTesseractNotCompiled
}
