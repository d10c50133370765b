// Package filetype validates inputs by magic bytes rather than
// trusting file extensions.
package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Info describes a detected file type.
type Info struct {
	MIMEType  string
	Extension string
	IsPDF     bool
}

// Detector identifies file types using magic bytes.
type Detector struct{}

func New() *Detector {
	return &Detector{}
}

// Detect inspects the file content, ignoring its name.
func (d *Detector) Detect(path string) (*Info, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect file type: %w", err)
	}

	info := &Info{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
		IsPDF:     mtype.Is("application/pdf"),
	}
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", path).Msg("detected file type")
	return info, nil
}

// ValidatePDF returns an error unless the file is a real PDF.
func (d *Detector) ValidatePDF(path string) error {
	info, err := d.Detect(path)
	if err != nil {
		return err
	}
	if !info.IsPDF {
		if strings.HasPrefix(info.MIMEType, "image/") {
			return fmt.Errorf("unsupported file type %s: image input requires OCR before extraction", info.MIMEType)
		}
		return fmt.Errorf("unsupported file type %s (%s)", info.MIMEType, info.Extension)
	}
	return nil
}
