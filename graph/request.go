package graph

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// Endpoint is the host prefix a request is sent to, in front of the platform
// domain.
type Endpoint string

const (
	EndpointGraph Endpoint = "graph"
	EndpointWWW   Endpoint = "www"
	EndpointAPI   Endpoint = "api"
)

// Request describes one API call.
type Request struct {
	// Endpoint defaults to EndpointGraph.
	Endpoint Endpoint
	// Method defaults to POST when Post is set and GET otherwise.
	Method string
	Path   string
	Params map[string]string
	Post   *PostBody
	// NoToken suppresses the automatic access_token and appsecret_proof
	// parameters, for calls made with app credentials.
	NoToken bool
}

// PostBody is the form body of a POST call. A flag-only body is sent empty.
type PostBody struct {
	fields map[string]any
}

// PostFlag is a POST without fields, used for actions such as likes.
func PostFlag() *PostBody {
	return &PostBody{}
}

// PostFields builds a form body. Strings are sent as-is, booleans as 1/0, other
// scalars in their decimal form, and slices, maps and structs JSON-encoded.
func PostFields(fields map[string]any) *PostBody {
	return &PostBody{fields: fields}
}

func (b *PostBody) form() (url.Values, error) {
	values := url.Values{}
	for name, v := range b.fields {
		encoded, skip, err := formValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", name)
		}
		if skip {
			continue
		}
		values.Set(name, encoded)
	}
	return values, nil
}

func formValue(v any) (string, bool, error) {
	switch value := v.(type) {
	case nil:
		return "", true, nil
	case string:
		return value, false, nil
	case bool:
		if value {
			return "1", false, nil
		}
		return "0", false, nil
	case json.Number:
		return value.String(), false, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(value), false, nil
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32), false, nil
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), false, nil
	case fmt.Stringer:
		return value.String(), false, nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", false, err
		}
		return string(encoded), false, nil
	}
}
