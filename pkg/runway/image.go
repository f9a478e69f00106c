package runway

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// MediaType returns the data URI image subtype for path: "png" for a .png
// suffix (any case), "jpeg" for everything else. The file is not sniffed.
func MediaType(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".png") {
		return "png"
	}
	return "jpeg"
}

// DataURI reads the file at path and returns it as a base64 data URI.
func DataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("runway: read image file: %w", err)
	}
	return "data:image/" + MediaType(path) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ImageReference returns ref unchanged when it is already a URL, otherwise
// the file contents as a data URI.
func ImageReference(ref string) (string, error) {
	if strings.HasPrefix(ref, "http") {
		return ref, nil
	}
	return DataURI(ref)
}
