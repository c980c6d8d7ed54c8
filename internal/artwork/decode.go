package artwork

import (
	"encoding/base64"
	"errors"
	"strings"
)

var errMalformedDataURI = errors.New("artwork: malformed data URI")

// decodePayload accepts either a bare base64 string or a full
// data:<mime>;base64,<payload> URI and returns the decoded bytes.
func decodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ";base64,")
		if idx < 0 {
			return nil, errMalformedDataURI
		}
		payload = payload[idx+len(";base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return raw, nil
	}
	// Some clients strip padding.
	if raw, rawErr := base64.RawStdEncoding.DecodeString(payload); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
