package bitstamp

import (
	"crypto/sha256"
	"net/http"
	"strconv"

	"cryptobridge/exchange"
)

// sign builds the HTTP request for e. Private scopes add key, signature and
// nonce to the form body, where signature is the upper-case hex
// HMAC-SHA256 of nonce + uid + apiKey.
func (a *Adapter) sign(e exchange.Endpoint, params exchange.Params) (exchange.Request, error) {
	url := a.BaseURL() + "/"
	if e.Scope != exchange.ScopeV1 {
		url += version + "/"
	}
	url += exchange.ImplodeParams(e.Path, params)
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
	nonce := strconv.FormatInt(a.NextNonce(), 10)
	auth := nonce + creds.UID + creds.APIKey
	query["key"] = creds.APIKey
	query["signature"] = exchange.HMACHexUpper([]byte(auth), []byte(creds.Secret), sha256.New)
	query["nonce"] = nonce

	headers := http.Header{}
	headers.Set("Content-Type", "application/x-www-form-urlencoded")
	return exchange.Request{
		Method:  e.Method,
		URL:     url,
		Headers: headers,
		Body:    []byte(exchange.URLEncode(query)),
	}, nil
}
