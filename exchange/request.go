package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Scope selects the API section an endpoint belongs to.
type Scope string

const (
	ScopePublic  Scope = "public"
	ScopePrivate Scope = "private"
	// ScopeV1 is the legacy private section some exchanges keep on an
	// unversioned path.
	ScopeV1 Scope = "v1"
)

// Signed reports whether requests in this scope carry credentials.
func (s Scope) Signed() bool {
	return s != ScopePublic
}

// Endpoint is one row of an exchange's static endpoint table.
type Endpoint struct {
	Scope  Scope
	Method string
	Path   string // may contain {param} placeholders
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s %s %s", e.Scope, e.Method, e.Path)
}

// Params are request parameters. Values are formatted with fmt.Sprint when
// placed into paths, queries or forms.
type Params map[string]any

// Request is a fully built, signed HTTP request ready for the Runtime.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is what the Runtime hands back for any completed HTTP exchange,
// regardless of status code.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Runtime performs HTTP requests on behalf of adapters. Implementations
// must report transport failures as *NetworkError and must honour ctx.
type Runtime interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

var placeholder = regexp.MustCompile(`\{([^}]+)\}`)

// ExtractParams lists the placeholder names in path, in order.
func ExtractParams(path string) []string {
	matches := placeholder.FindAllStringSubmatch(path, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ImplodeParams substitutes {param} placeholders in path with values from
// params. Placeholders without a value are left untouched.
func ImplodeParams(path string, params Params) string {
	return placeholder.ReplaceAllStringFunc(path, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := params[name]; ok {
			return fmt.Sprint(v)
		}
		return m
	})
}

// Omit returns a copy of params without keys.
func Omit(params Params, keys ...string) Params {
	out := make(Params, len(params))
	for k, v := range params {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Leftover returns the params not consumed by path placeholders.
func Leftover(path string, params Params) Params {
	return Omit(params, ExtractParams(path)...)
}

// URLEncode form-encodes params with sorted keys.
func URLEncode(params Params) string {
	if len(params) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, fmt.Sprint(v))
	}
	return values.Encode()
}

// WithQuery appends the encoded params to base as a query string.
func WithQuery(base string, params Params) string {
	q := URLEncode(params)
	if q == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q
}

// SortedKeys returns the keys of params in order.
func SortedKeys(params Params) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
