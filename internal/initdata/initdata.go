// Package initdata validates Telegram Mini App init data.
//
// See https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const webAppDataKey = "WebAppData"

// maxClockSkew bounds how far auth_date may be in the future.
const maxClockSkew = 5 * time.Minute

// User is the identity Telegram embeds in the "user" field.
type User struct {
	ID              int64  `json:"id"`
	Username        string `json:"username,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	LanguageCode    string `json:"language_code,omitempty"`
	IsPremium       bool   `json:"is_premium,omitempty"`
	PhotoURL        string `json:"photo_url,omitempty"`
	AllowsWriteToPM bool   `json:"allows_write_to_pm,omitempty"`
}

// Data is a verified init data payload.
type Data struct {
	User         User
	AuthDate     time.Time
	QueryID      string
	ChatInstance string
	ChatType     string
	StartParam   string

	// Fields holds every signed field except hash, undecoded beyond
	// percent-decoding.
	Fields map[string]string
}

// Verifier checks init data against a single bot token. The signing key is
// derived once; a Verifier is safe for concurrent use.
type Verifier struct {
	signingKey []byte
}

// NewVerifier derives the signing key for botToken. An empty token yields a
// Verifier that rejects everything.
func NewVerifier(botToken string) *Verifier {
	if botToken == "" {
		return &Verifier{}
	}
	return &Verifier{signingKey: deriveSigningKey(botToken)}
}

// Verify is a convenience wrapper for one-off checks.
func Verify(raw, botToken string) (*Data, error) {
	return NewVerifier(botToken).Verify(raw)
}

// Verify authenticates raw and returns the payload it carries. Every failure
// is an *AuthError wrapping one of the package sentinels.
func (v *Verifier) Verify(raw string) (*Data, error) {
	fields, err := parse(raw)
	if err != nil {
		return nil, err
	}

	hash := fields["hash"]
	if hash == "" {
		return nil, newAuthError(ErrMissingHash, nil)
	}
	delete(fields, "hash")

	userRaw := fields["user"]
	if userRaw == "" {
		return nil, newAuthError(ErrMissingUser, nil)
	}

	if len(v.signingKey) == 0 {
		return nil, newAuthError(ErrInvalidSignature, nil)
	}
	expected := sign(v.signingKey, checkString(fields))
	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return nil, newAuthError(ErrInvalidSignature, nil)
	}

	var user User
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		return nil, newAuthError(ErrMalformedIdentity, err)
	}
	if user.ID == 0 {
		return nil, newAuthError(ErrMalformedIdentity, nil)
	}

	d := &Data{
		User:         user,
		QueryID:      fields["query_id"],
		ChatInstance: fields["chat_instance"],
		ChatType:     fields["chat_type"],
		StartParam:   fields["start_param"],
		Fields:       fields,
	}
	if ts, err := strconv.ParseInt(fields["auth_date"], 10, 64); err == nil {
		d.AuthDate = time.Unix(ts, 0)
	}
	return d, nil
}

// CheckFreshness rejects payloads older than maxAge. A zero maxAge disables
// the check.
func (d *Data) CheckFreshness(maxAge time.Duration, now time.Time) error {
	if maxAge <= 0 {
		return nil
	}
	if d.AuthDate.IsZero() {
		return newAuthError(ErrExpired, nil)
	}
	age := now.Sub(d.AuthDate)
	if age > maxAge || age < -maxClockSkew {
		return newAuthError(ErrExpired, nil)
	}
	return nil
}

// Sign builds a query string carrying fields and a valid hash for botToken.
func Sign(fields map[string]string, botToken string) string {
	f := make(map[string]string, len(fields))
	for k, v := range fields {
		if k != "hash" {
			f[k] = v
		}
	}

	vals := url.Values{}
	for k, v := range f {
		vals.Set(k, v)
	}
	vals.Set("hash", sign(deriveSigningKey(botToken), checkString(f)))
	return vals.Encode()
}

func parse(raw string) (map[string]string, error) {
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return nil, newAuthError(ErrMalformedEncoding, err)
	}

	fields := make(map[string]string, len(vals))
	for k, vs := range vals {
		if len(vs) != 1 {
			return nil, newAuthError(ErrMalformedEncoding, nil)
		}
		fields[k] = vs[0]
	}
	return fields, nil
}

func checkString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

func deriveSigningKey(botToken string) []byte {
	h := hmac.New(sha256.New, []byte(botToken))
	h.Write([]byte(webAppDataKey))
	return h.Sum(nil)
}

func sign(key []byte, data string) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
