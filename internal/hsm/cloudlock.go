package hsm

import (
	"bytes"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.mozilla.org/pkcs7"
)

const userAgent = "CloudLock v1 HSM Client"

// CloudConfig carries everything needed to construct a CloudHSM.
type CloudConfig struct {
	// APIEndpoint is the identity document's apiEndpoint, e.g. "https://api.balena-dev.com".
	APIEndpoint string
	// UUID is the device's identity document uuid.
	UUID string
	// APIVersion selects the CloudLock API version path segment (e.g. "v1").
	APIVersion string
	// APIKey authenticates against the CloudLock endpoint.
	APIKey string
	// RootCAPEM, if it contains at least one valid PEM certificate, is the
	// only trust anchor used for the TLS connection; otherwise (empty or
	// unparsable) system trust is used.
	RootCAPEM []byte
}

// CloudHSM wraps a remote PKCS#7 wrapping service. It performs one blocking
// HTTP round trip at construction time to fetch and cache the wrapping
// certificate; all subsequent Seal calls are local, and Unseal calls defer
// the actual unwrap to the remote service, which alone holds the private key.
type CloudHSM struct {
	baseURL *url.URL
	apiKey  string
	cert    *x509.Certificate
	http    *retryablehttp.Client
	logger  *slog.Logger
}

// NewCloudHSM constructs a CloudHSM, fetching and caching the wrapping
// certificate from <base_url>config. The base URL is
// <apiEndpoint>/cloudlock/<api_version>/<uuid>/, matching the CloudLock
// wire contract in §6.
func NewCloudHSM(cfg CloudConfig, logger *slog.Logger) (*CloudHSM, error) {
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := strings.TrimSuffix(cfg.APIEndpoint, "/")
	raw := fmt.Sprintf("%s/cloudlock/%s/%s/", endpoint, cfg.APIVersion, cfg.UUID)
	base, err := url.Parse(raw)
	if err != nil {
		return nil, UnableToEncryptError{Detail: fmt.Sprintf("parse CloudLock base URL: %v", err)}
	}

	client := newHTTPClient(cfg.RootCAPEM, logger)

	h := &CloudHSM{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    client,
		logger:  logger,
	}

	certPEM, err := h.fetchCert()
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, UnableToEncryptError{Detail: "wrapping certificate response was not valid PEM"}
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, UnableToEncryptError{Detail: fmt.Sprintf("parse wrapping certificate: %v", err)}
	}
	h.cert = cert

	// pkcs7's content cipher is a package-level setting; it is set here,
	// once at construction, so concurrent Seal calls only read it.
	pkcs7.ContentEncryptionAlgorithm = pkcs7.EncryptionAlgorithmAES256CBC

	return h, nil
}

func newHTTPClient(rootCAPEM []byte, logger *slog.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil // disables retryablehttp's own per-request logging
	client.RetryMax = 3

	if len(rootCAPEM) > 0 {
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM(rootCAPEM) {
			transport := client.HTTPClient.Transport
			if transport == nil {
				transport = http.DefaultTransport
			}
			if t, ok := transport.(*http.Transport); ok {
				t = t.Clone()
				if t.TLSClientConfig == nil {
					t.TLSClientConfig = &tls.Config{}
				}
				t.TLSClientConfig.RootCAs = pool
				client.HTTPClient.Transport = t
			}
		} else {
			logger.Warn("balenaRootCA did not contain a valid PEM certificate; using system trust")
		}
	}

	return client
}

type cloudLockConfigResponse struct {
	Cert string `json:"cert"`
}

type cloudLockPayload struct {
	Data string `json:"data"`
}

func (h *CloudHSM) fetchCert() (string, error) {
	u, err := h.baseURL.Parse("config")
	if err != nil {
		return "", UnableToEncryptError{Detail: fmt.Sprintf("build config URL: %v", err)}
	}

	req, err := retryablehttp.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return "", UnableToEncryptError{Detail: err.Error()}
	}
	h.authorize(req.Request)

	resp, err := h.http.Do(req)
	if err != nil {
		return "", UnableToEncryptError{Detail: fmt.Sprintf("request %s: %v", u, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", UnableToEncryptError{Detail: fmt.Sprintf("%s returned %d: %s", u, resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var cfg cloudLockConfigResponse
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return "", UnableToEncryptError{Detail: fmt.Sprintf("decode config response from %s: %v", u, err)}
	}
	return cfg.Cert, nil
}

func (h *CloudHSM) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
}

// Seal envelope-encrypts plaintext under the cached wrapping certificate
// using PKCS#7 with AES-256-CBC content encryption, and returns the
// PEM-encoded result.
func (h *CloudHSM) Seal(plaintext []byte) ([]byte, error) {
	data := base64.StdEncoding.EncodeToString(plaintext)

	enveloped, err := pkcs7.Encrypt([]byte(data), []*x509.Certificate{h.cert})
	if err != nil {
		return nil, UnableToEncryptError{Detail: err.Error()}
	}

	block := &pem.Block{Type: "PKCS7", Bytes: enveloped}
	return pem.EncodeToMemory(block), nil
}

// Unseal validates that blob locally parses as a PKCS#7 PEM message (a
// defensive format check before making a remote call), then asks the
// CloudLock service to decrypt it. The service alone holds the unwrapping
// key; the client never sees it.
func (h *CloudHSM) Unseal(blob []byte) ([]byte, error) {
	block, _ := pem.Decode(blob)
	if block == nil {
		return nil, ErrInvalidKey
	}
	if _, err := pkcs7.Parse(block.Bytes); err != nil {
		return nil, ErrInvalidKey
	}

	u, err := h.baseURL.Parse("decrypt")
	if err != nil {
		return nil, UnableToDecryptError{Detail: fmt.Sprintf("build decrypt URL: %v", err)}
	}

	payload, err := json.Marshal(cloudLockPayload{Data: string(blob)})
	if err != nil {
		return nil, UnableToDecryptError{Detail: err.Error()}
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, UnableToDecryptError{Detail: err.Error()}
	}
	h.authorize(req.Request)

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, UnableToDecryptError{Detail: fmt.Sprintf("request %s: %v", u, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidKey
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, UnableToDecryptError{Detail: fmt.Sprintf("%s returned %d: %s", u, resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var out cloudLockPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, UnableToDecryptError{Detail: fmt.Sprintf("decode decrypt response: %v", err)}
	}

	plaintext, err := base64.StdEncoding.DecodeString(out.Data)
	if err != nil {
		return nil, UnableToDecryptError{Detail: fmt.Sprintf("decode base64 payload: %v", err)}
	}
	return plaintext, nil
}

// Random draws from the OS CSPRNG, same as Passthrough; CloudLock has no
// remote randomness endpoint.
func (h *CloudHSM) Random(n int) ([]byte, error) {
	if n <= 0 {
		n = DefaultRandomBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, UnableToEncryptError{Detail: err.Error()}
	}
	return buf, nil
}
