package signedrequest

import (
	"maps"
	"time"

	"github.com/tidwall/gjson"
)

// Claims is the verified content of a signed request. It is immutable; the
// accessors return copies or scalar values.
type Claims struct {
	algorithm string
	fields    map[string]any
	raw       []byte
}

// User describes the viewing user as reported by the platform.
type User struct {
	Locale  string
	Country string
	AgeMin  int
	AgeMax  int
}

// Page is present when the application is rendered inside a page tab.
type Page struct {
	ID    string
	Liked bool
	Admin bool
}

func newClaims(algorithm string, fields map[string]any, raw []byte) *Claims {
	return &Claims{
		algorithm: algorithm,
		fields:    fields,
		raw:       append([]byte(nil), raw...),
	}
}

// Algorithm is always AlgorithmHMACSHA256 for verified claims.
func (c *Claims) Algorithm() string {
	return c.algorithm
}

// Payload returns a shallow copy of the decoded payload.
func (c *Claims) Payload() map[string]any {
	return maps.Clone(c.fields)
}

// Get queries the payload with a gjson path, e.g. "user.locale".
func (c *Claims) Get(path string) gjson.Result {
	return gjson.GetBytes(c.raw, path)
}

// OAuthToken returns the access token issued with the request, if the user
// has authorised the application.
func (c *Claims) OAuthToken() (string, bool) {
	return c.nonEmptyString("oauth_token")
}

// UserID is reported as a string or a number depending on the context; both
// forms are returned as a string.
func (c *Claims) UserID() (string, bool) {
	return c.nonEmptyString("user_id")
}

// Code is the authorisation code that can be exchanged for an access token.
func (c *Claims) Code() (string, bool) {
	return c.nonEmptyString("code")
}

// IssuedAt returns the zero time when the field is missing.
func (c *Claims) IssuedAt() time.Time {
	return c.unixTime("issued_at")
}

// Expires returns the expiry of OAuthToken, or the zero time.
func (c *Claims) Expires() time.Time {
	return c.unixTime("expires")
}

// User returns nil when the payload carries no user object.
func (c *Claims) User() *User {
	user := c.Get("user")
	if !user.IsObject() {
		return nil
	}
	return &User{
		Locale:  user.Get("locale").String(),
		Country: user.Get("country").String(),
		AgeMin:  int(user.Get("age.min").Int()),
		AgeMax:  int(user.Get("age.max").Int()),
	}
}

// Locale is a shortcut for User().Locale.
func (c *Claims) Locale() string {
	return c.Get("user.locale").String()
}

// Page returns nil unless the request comes from a page tab.
func (c *Claims) Page() *Page {
	page := c.Get("page")
	if !page.IsObject() {
		return nil
	}
	return &Page{
		ID:    page.Get("id").String(),
		Liked: page.Get("liked").Bool(),
		Admin: page.Get("admin").Bool(),
	}
}

// AppData returns the app_data passed through the page tab URL. Plain strings
// are returned as-is, objects as map[string]any, and a string holding a JSON
// object is decoded into a map. Nil when absent.
func (c *Claims) AppData() any {
	data := c.Get("app_data")
	switch {
	case !data.Exists():
		return nil
	case data.Type == gjson.String:
		s := data.String()
		if gjson.Valid(s) {
			if decoded := gjson.Parse(s); decoded.IsObject() {
				return decoded.Value()
			}
		}
		return s
	default:
		return data.Value()
	}
}

func (c *Claims) nonEmptyString(path string) (string, bool) {
	v := c.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return "", false
	}
	s := v.String()
	return s, s != ""
}

func (c *Claims) unixTime(path string) time.Time {
	v := c.Get(path)
	if !v.Exists() || v.Int() == 0 {
		return time.Time{}
	}
	return time.Unix(v.Int(), 0)
}
