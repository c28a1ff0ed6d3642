// Package codec turns client payloads into bytes and stages audio for the
// transcription model.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"orderverifier/internal/domain"
	"orderverifier/internal/utils"
)

// DefaultMinAudioBytes is the smallest recording worth sending to the model.
const DefaultMinAudioBytes = 100

// DecodeBase64 decodes standard or URL-safe base64, padded or not.
// Whitespace and a data URI prefix are ignored.
func DecodeBase64(encoded string) ([]byte, error) {
	payload := normalize(encoded)

	enc := base64.StdEncoding
	if strings.ContainsAny(payload, "-_") {
		enc = base64.URLEncoding
	}
	if len(payload)%4 != 0 {
		enc = enc.WithPadding(base64.NoPadding)
	}

	data, err := enc.DecodeString(payload)
	if err != nil {
		return nil, domain.NewError(domain.KindDecode, "invalid base64 payload", err)
	}

	return data, nil
}

// DecodeAudio decodes a base64 recording and rejects anything shorter than minBytes.
func DecodeAudio(encoded string, minBytes int) ([]byte, error) {
	data, err := DecodeBase64(encoded)
	if err != nil {
		return nil, err
	}
	if len(data) < minBytes {
		return nil, domain.NewError(
			domain.KindTooSmall,
			fmt.Sprintf("audio data too small: %d bytes, need at least %d", len(data), minBytes),
			nil,
		)
	}

	return data, nil
}

// audioFormats are the containers the transcription backends accept.
var audioFormats = []string{"flac", "m4a", "mp3", "mp4", "mpeg", "mpga", "oga", "ogg", "wav", "webm"}

// AudioExt guesses a file extension for a recording, ".wav" when the format
// is unknown or not accepted by the transcription backends.
func AudioExt(data []byte) string {
	// browsers record into webm/mp4 containers with audio-only tracks
	format := strings.TrimPrefix(mimetype.Detect(data).Extension(), ".")
	if utils.InSlice(audioFormats, format) {
		return "." + format
	}

	return ".wav"
}

// ImageMIME sniffs the MIME type of a receipt image, "image/jpeg" when the
// bytes are not a recognised image.
func ImageMIME(data []byte) string {
	mtype := mimetype.Detect(data)
	if strings.HasPrefix(mtype.String(), "image/") {
		return mtype.String()
	}

	return "image/jpeg"
}

// DataURI builds an inline base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func normalize(encoded string) string {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		if _, after, ok := strings.Cut(payload, ";base64,"); ok {
			payload = after
		}
	}

	// clients sometimes wrap base64 at 76 columns
	if strings.ContainsAny(payload, " \t\r\n") {
		payload = strings.Join(strings.Fields(payload), "")
	}

	return payload
}
