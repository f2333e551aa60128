package inventory

import (
	"path/filepath"
	"strings"
)

// Kind names the pipeline that converts a file to text.
type Kind string

// Supported kinds.
const (
	KindAudio Kind = "audio"
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
	KindText  Kind = "text"
)

// Kinds lists the supported kinds in display order.
var Kinds = []Kind{KindAudio, KindImage, KindPDF, KindText}

var extensions = map[string]Kind{
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".m4a":  KindAudio,
	".flac": KindAudio,
	".ogg":  KindAudio,
	".webm": KindAudio,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".bmp":  KindImage,
	".tiff": KindImage,
	".pdf":  KindPDF,
	".txt":  KindText,
	".md":   KindText,
	".csv":  KindText,
	".json": KindText,
	".html": KindText,
	".xml":  KindText,
}

// Classify maps path to a Kind by extension, case-insensitively.
func Classify(path string) (Kind, bool) {
	kind, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return kind, ok
}
