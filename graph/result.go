package graph

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var ErrNotJSON = errors.New("response body is not json")

// Result is a successful response. It holds either a decoded JSON document or,
// when the body was not JSON, the raw body unchanged.
type Result struct {
	StatusCode int
	Header     http.Header

	body   []byte
	value  any
	isJSON bool
}

func (r *Result) IsJSON() bool {
	return r.isJSON
}

// Value returns the decoded JSON document, or nil for a raw body.
func (r *Result) Value() any {
	return r.value
}

// Raw returns a copy of the body as received.
func (r *Result) Raw() []byte {
	return append([]byte(nil), r.body...)
}

// Decode unmarshals a JSON body into v.
func (r *Result) Decode(v any) error {
	if !r.isJSON {
		return ErrNotJSON
	}
	return json.Unmarshal(r.body, v)
}

// Get reads a value from a JSON body using a gjson path.
func (r *Result) Get(path string) gjson.Result {
	if !r.isJSON {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.body, path)
}

// Values parses a URL-encoded body, as returned by some token endpoints.
func (r *Result) Values() (url.Values, error) {
	values, err := url.ParseQuery(string(r.body))
	if err != nil {
		return nil, errors.Wrap(err, "[Result Values] url.ParseQuery")
	}
	return values, nil
}
