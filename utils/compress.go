package utils

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
)

// gzipMagic is the two-byte header of every gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// CompressString gzips the input at BestCompression and returns it base64
// encoded so it can be stored inside JSON cache entries.
func CompressString(input string) (string, error) {
	var buf bytes.Buffer
	gzipWriter, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := gzipWriter.Write([]byte(input)); err != nil {
		return "", err
	}
	if err := gzipWriter.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecompressString reverses CompressString.
func DecompressString(input string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", err
	}
	gzipReader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer gzipReader.Close()
	result, err := io.ReadAll(gzipReader)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// IsCompressed reports whether input looks like the output of CompressString.
// Cache files survive toggling the compression flag, so readers use this to
// accept entries written under either setting.
func IsCompressed(input string) bool {
	if len(input) < 4 {
		return false
	}
	// 4 base64 chars decode to 3 bytes, enough for the magic check.
	head, err := base64.StdEncoding.DecodeString(input[:4])
	if err != nil {
		return false
	}
	return bytes.HasPrefix(head, gzipMagic)
}
