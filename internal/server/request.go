package server

import (
	"crypto/subtle"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const maxPostBody = 1 << 20 // 1 MiB

// statusError is a client-facing failure with the status code it should be reported with.
type statusError struct {
	cause   error
	Code    int
	Message string
}

func (e *statusError) Error() string { return e.Message }

func (e *statusError) Unwrap() error { return e.cause }

func newStatusError(code int, message string) *statusError {
	return &statusError{Code: code, Message: message}
}

func wrapStatusError(code int, message string, cause error) *statusError {
	return &statusError{cause: cause, Code: code, Message: message}
}

var (
	errMissingContentType = newStatusError(http.StatusBadRequest, "Missing Content-Type")
	errUnsupportedMedia   = newStatusError(http.StatusUnsupportedMediaType, "Unsupported media type")
	errUnsupportedCharset = newStatusError(http.StatusUnsupportedMediaType, "Unsupported character set")
	errMissingToken       = newStatusError(http.StatusBadRequest, "Missing token")
	errInvalidToken       = newStatusError(http.StatusUnauthorized, "Invalid token")
	errInvalidURL         = newStatusError(http.StatusBadRequest, "Invalid URL")
)

// form holds the submitted fields. For repeated keys the last value wins.
type form map[string]string

func (f form) lookup(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// readForm checks the content type, reads the bounded body and decodes it.
func readForm(w http.ResponseWriter, r *http.Request) (form, error) {
	if err := checkContentType(r.Header.Get(headerContentType)); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPostBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, wrapStatusError(http.StatusRequestEntityTooLarge, "POST body exceeded maximum size", err)
		}
		return nil, wrapStatusError(http.StatusInternalServerError, "Unable to read POST body", err)
	}

	return parseForm(string(body)), nil
}

// parseForm decodes an application/x-www-form-urlencoded body. Pairs are split on
// '&' only, so ';' stays part of a value. Malformed escapes are kept verbatim.
func parseForm(body string) form {
	fields := make(form)
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		fields[unescapeFormValue(key)] = unescapeFormValue(value)
	}
	return fields
}

func unescapeFormValue(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return strings.ReplaceAll(s, "+", " ")
}

func checkContentType(header string) error {
	if strings.TrimSpace(header) == "" {
		return errMissingContentType
	}
	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil || mediaType != contentTypeForm {
		return errUnsupportedMedia
	}
	if charset, ok := params["charset"]; ok && !isUTF8(charset) {
		return errUnsupportedCharset
	}
	return nil
}

func isUTF8(charset string) bool {
	return strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8")
}

// authorize compares the submitted token with want in constant time.
func authorize(fields form, want string) error {
	token, ok := fields.lookup("token")
	if !ok {
		return errMissingToken
	}
	if !tokensEqual(token, want) {
		return errInvalidToken
	}
	return nil
}

func tokensEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func parseLink(raw string, present bool) (*url.URL, error) {
	if !present {
		return nil, errInvalidURL
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() {
		return nil, errInvalidURL
	}
	return u, nil
}
