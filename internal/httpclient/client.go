// Package httpclient builds the *req.Client used by the RDAP ownership backend.
package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/tbckr/nsolver/internal/version"
)

// DefaultUserAgent identifies nsolver honestly so registry operators can
// recognise its traffic. A var because version.Version is set at link time.
var DefaultUserAgent = "nsolver/" + version.Version + " (+https://github.com/tbckr/nsolver)"

// impersonatePresets set TLS fingerprint, HTTP/2 settings, header order and
// User-Agent together.
var impersonatePresets = map[string]bool{
	"chrome":  true,
	"firefox": true,
	"safari":  true,
}

// fingerprintPresets is a superset of impersonatePresets; the extra entries
// only change the TLS client hello.
var fingerprintPresets = map[string]bool{
	"chrome": true, "firefox": true, "safari": true,
	"edge": true, "ios": true, "android": true, "randomized": true,
}

// Options configures New.
type Options struct {
	// Proxy is an http://, https:// or socks5:// URL. Empty honours the
	// standard proxy environment variables.
	Proxy string
	// UserAgent is a custom string or a browser preset name.
	UserAgent string
	// TLSFingerprint selects a uTLS client hello preset.
	TLSFingerprint string
	// Timeout bounds each request including redirects. Zero means no limit.
	Timeout time.Duration
	// Debug logs every response at debug level.
	Debug bool
}

// PresetNames returns the sorted browser preset names, excluding "randomized".
func PresetNames() []string {
	names := make([]string, 0, len(fingerprintPresets))
	for name := range fingerprintPresets {
		if name != "randomized" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// ResolveUserAgent returns the User-Agent that New will send, for display.
// Impersonation presets report the preset name because req owns the string.
func ResolveUserAgent(userAgent, tlsFingerprint string) string {
	switch {
	case impersonatePresets[userAgent]:
		return userAgent
	case fingerprintPresets[userAgent]:
		return DefaultUserAgent
	case userAgent != "":
		return userAgent
	case impersonatePresets[tlsFingerprint]:
		return tlsFingerprint
	}
	return DefaultUserAgent
}

// ResolveTLSFingerprint returns the TLS fingerprint that New will use. An
// explicit fingerprint wins; otherwise a preset User-Agent implies one.
func ResolveTLSFingerprint(userAgent, tlsFingerprint string) string {
	if tlsFingerprint != "" {
		return tlsFingerprint
	}
	if fingerprintPresets[userAgent] {
		return userAgent
	}
	return ""
}

// ResolveProxy returns the proxy New will use, for display. An unset proxy
// with a proxy environment variable present reports "<from environment>".
func ResolveProxy(proxy string) string {
	if proxy != "" {
		return proxy
	}
	for _, env := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy", "ALL_PROXY", "all_proxy"} {
		if os.Getenv(env) != "" {
			return "<from environment>"
		}
	}
	return ""
}

// New builds a *req.Client from opts. logger may be nil when Debug is false.
func New(opts Options, logger *slog.Logger) (*req.Client, error) {
	fingerprint := ResolveTLSFingerprint(opts.UserAgent, opts.TLSFingerprint)
	customUA := opts.UserAgent != "" && !fingerprintPresets[opts.UserAgent]

	client := req.NewClient()

	switch fingerprint {
	case "chrome":
		client.ImpersonateChrome()
	case "firefox":
		client.ImpersonateFirefox()
	case "safari":
		client.ImpersonateSafari()
	case "edge":
		client.SetTLSFingerprintEdge()
	case "ios":
		client.SetTLSFingerprintIOS()
	case "android":
		client.SetTLSFingerprintAndroid()
	case "randomized":
		client.SetTLSFingerprintRandomized()
	case "":
	default:
		return nil, fmt.Errorf("unknown TLS fingerprint %q (valid: %s, randomized)", fingerprint, strings.Join(PresetNames(), ", "))
	}

	if customUA {
		client.SetUserAgent(opts.UserAgent)
	} else if !impersonatePresets[fingerprint] {
		client.SetUserAgent(DefaultUserAgent)
	}

	if opts.Proxy != "" {
		if err := validateProxy(opts.Proxy); err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
		}
		// socks5:// forwards hostnames, so RDAP lookups do not leak DNS.
		client.SetProxyURL(opts.Proxy)
	} else {
		client.SetProxy(http.ProxyFromEnvironment)
	}

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	if opts.Debug && logger != nil {
		attachDebugHook(client, logger)
	}
	return client, nil
}

// attachDebugHook logs method, URL and status of every response, plus a body
// snippet for non-2xx responses.
func attachDebugHook(client *req.Client, logger *slog.Logger) {
	client.OnAfterResponse(func(_ *req.Client, resp *req.Response) error {
		if resp.Request == nil || resp.Request.RawRequest == nil {
			return nil
		}
		logger.Debug("http response",
			"method", resp.Request.RawRequest.Method,
			"url", resp.Request.RawRequest.URL.String(),
			"status", resp.StatusCode,
		)
		if !resp.IsSuccessState() {
			body := resp.String()
			if len(body) > 512 {
				body = body[:512]
			}
			logger.Debug("http error body", "status", resp.StatusCode, "body", body)
		}
		return nil
	})
}

func validateProxy(proxy string) error {
	for _, scheme := range []string{"http://", "https://", "socks5://"} {
		if strings.HasPrefix(proxy, scheme) {
			return nil
		}
	}
	return fmt.Errorf("proxy scheme must be http://, https://, or socks5://")
}
