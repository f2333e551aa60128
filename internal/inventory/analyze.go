package inventory

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JakeFAU/file2text/internal/hash/sha256"
)

// TextStats summarizes a text input.
type TextStats struct {
	Lines int `json:"lines"`
	Words int `json:"words"`
	Runes int `json:"runes"`
}

// File is one analysed input.
type File struct {
	Path   string     `json:"path"`
	Kind   Kind       `json:"kind"`
	Size   int64      `json:"size"`
	SHA256 string     `json:"sha256"`
	Text   *TextStats `json:"text,omitempty"`
	// Pages is an estimate taken from the PDF page objects.
	Pages int `json:"pages,omitempty"`
}

var pdfPage = regexp.MustCompile(`/Type\s*/Page\b`)

const maxLineBytes = 1 << 20

func analyze(hasher *sha256.Hasher, path string, kind Kind) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()
	info, err := fh.Stat()
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	f := File{Path: path, Kind: kind, Size: info.Size()}

	switch kind {
	case KindText:
		var buf bytes.Buffer
		stats, err := textStats(io.TeeReader(fh, &buf))
		if err != nil {
			return File{}, fmt.Errorf("scan %s: %w", path, err)
		}
		f.Text = &stats
		f.SHA256, err = hasher.Hash(buf.Bytes())
		if err != nil {
			return File{}, err
		}
	case KindPDF:
		data, err := io.ReadAll(fh)
		if err != nil {
			return File{}, fmt.Errorf("read %s: %w", path, err)
		}
		f.Pages = len(pdfPage.FindAll(data, -1))
		f.SHA256, err = hasher.Hash(data)
		if err != nil {
			return File{}, err
		}
	default:
		f.SHA256, err = hasher.HashReader(fh)
		if err != nil {
			return File{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return f, nil
}

func textStats(r io.Reader) (TextStats, error) {
	var stats TextStats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := sc.Bytes()
		stats.Lines++
		stats.Words += len(strings.Fields(string(line)))
		stats.Runes += utf8.RuneCount(bytes.TrimRight(line, "\r"))
	}
	if err := sc.Err(); err != nil {
		return TextStats{}, err
	}
	return stats, nil
}
