package gemini

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"cryptobridge/exchange"
)

// sign builds the HTTP request for e. Private calls carry no body: the
// request path, nonce and params travel as a base64 JSON payload header
// signed with HMAC-SHA384.
func (a *Adapter) sign(e exchange.Endpoint, params exchange.Params) (exchange.Request, error) {
	path := "/" + version + "/" + exchange.ImplodeParams(e.Path, params)
	url := a.BaseURL() + path
	query := exchange.Leftover(e.Path, params)

	if !e.Scope.Signed() {
		return exchange.Request{
			Method:  e.Method,
			URL:     exchange.WithQuery(url, query),
			Headers: http.Header{},
		}, nil
	}

	if err := a.CheckCredentials(); err != nil {
		return exchange.Request{}, err
	}
	creds := a.Credentials()
	query["request"] = path
	query["nonce"] = a.NextNonce()
	raw, err := json.Marshal(query)
	if err != nil {
		return exchange.Request{}, err
	}
	payload := base64.StdEncoding.EncodeToString(raw)
	signature := exchange.HMACHex([]byte(payload), []byte(creds.Secret), sha512.New384)

	headers := http.Header{}
	headers.Set("Content-Type", "text/plain")
	headers.Set("X-GEMINI-APIKEY", creds.APIKey)
	headers.Set("X-GEMINI-PAYLOAD", payload)
	headers.Set("X-GEMINI-SIGNATURE", signature)
	return exchange.Request{Method: e.Method, URL: url, Headers: headers}, nil
}
