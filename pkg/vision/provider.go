// Package vision detects salient objects in a captured photo by calling a
// hosted inference workflow.
package vision

import (
	"context"
	"encoding/base64"
	"strings"
)

// Detector returns the labels of salient objects in an image.
// image is a data URI or an externally reachable URL.
// An empty, nil-error result means nothing interesting was found.
type Detector interface {
	Detect(ctx context.Context, image string) ([]string, error)
}

// Photo is a single captured frame.
type Photo struct {
	Data     []byte
	MimeType string
}

// DataURI encodes the photo as a data URI. An empty mime type is treated
// as JPEG.
func (p Photo) DataURI() string {
	mime := p.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// ParseLabels splits a comma-delimited label list, trimming whitespace and
// dropping empty tokens. Labels keep their case.
func ParseLabels(text string) []string {
	var labels []string
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		labels = append(labels, tok)
	}
	return labels
}
