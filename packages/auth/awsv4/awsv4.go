// Package awsv4 signs requests with AWS Signature Version 4.
package awsv4

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
)

// Credentials identify the signer.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	Service      string
}

func (c Credentials) validate() error {
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.New("aws: access key and secret key are required")
	}
	if c.Region == "" || c.Service == "" {
		return errors.New("aws: region and service are required")
	}
	return nil
}

// Transport signs every request before handing it to Next. Signing needs the
// resolved URL, so it wraps the transport rather than running as a hook.
type Transport struct {
	Next        fetch.Transport
	Credentials Credentials

	now func() time.Time
}

// NewTransport wraps next with request signing.
func NewTransport(next fetch.Transport, creds Credentials) (*Transport, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	return &Transport{Next: next, Credentials: creds, now: time.Now}, nil
}

func (t *Transport) Fetch(ctx context.Context, rawURL string, req *fetch.RequestConfig) (*fetch.Response, error) {
	signed, err := t.Sign(rawURL, req)
	if err != nil {
		return nil, err
	}
	return t.Next.Fetch(ctx, rawURL, signed)
}

// Sign returns a copy of req carrying the SigV4 headers for rawURL.
func (t *Transport) Sign(rawURL string, req *fetch.RequestConfig) (*fetch.RequestConfig, error) {
	parsedURL, err := url.Parse(req.BuildURL(rawURL))
	if err != nil {
		return nil, &fetch.URLError{URL: rawURL, Err: err}
	}

	now := time.Now
	if t.now != nil {
		now = t.now
	}
	ts := now().UTC()
	amzDate := ts.Format("20060102T150405Z")
	dateStamp := ts.Format("20060102")

	host := parsedURL.Host
	payloadHash := sha256Hash(req.Body)

	signedHeaders := "host;x-amz-content-sha256;x-amz-date"
	canonicalHeaders := fmt.Sprintf("host:%s\nx-amz-content-sha256:%s\nx-amz-date:%s\n", host, payloadHash, amzDate)
	if t.Credentials.SessionToken != "" {
		signedHeaders += ";x-amz-security-token"
		canonicalHeaders += fmt.Sprintf("x-amz-security-token:%s\n", t.Credentials.SessionToken)
	}

	canonicalURI := parsedURL.EscapedPath()
	if canonicalURI == "" {
		canonicalURI = "/"
	}

	method := req.Method
	if method == "" {
		method = "GET"
	}

	canonicalRequest := strings.Join([]string{
		method,
		canonicalURI,
		canonicalQueryString(parsedURL.Query()),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request",
		dateStamp, t.Credentials.Region, t.Credentials.Service)

	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		credentialScope,
		sha256Hash(canonicalRequest),
	}, "\n")

	signingKey := signatureKey(t.Credentials.SecretKey, dateStamp, t.Credentials.Region, t.Credentials.Service)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	signed := req.Clone()
	signed.SetHeader("Authorization", fmt.Sprintf("AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		t.Credentials.AccessKey, credentialScope, signedHeaders, signature))
	signed.SetHeader("X-Amz-Date", amzDate)
	signed.SetHeader("X-Amz-Content-Sha256", payloadHash)
	if t.Credentials.SessionToken != "" {
		signed.SetHeader("X-Amz-Security-Token", t.Credentials.SessionToken)
	}
	return signed, nil
}

func canonicalQueryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		vals := values[k]
		sort.Strings(vals)
		for _, v := range vals {
			pairs = append(pairs, awsEscape(k)+"="+awsEscape(v))
		}
	}
	return strings.Join(pairs, "&")
}

// awsEscape percent-encodes everything but the RFC 3986 unreserved set.
func awsEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func sha256Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func signatureKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}
