// Package media re-hosts gateway-served message attachments into durable
// object storage. Gateways commonly emit internal-loopback URLs and disagree
// on auth header names between versions, so fetching is defensive on both
// fronts.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxMediaBytes caps a single downloaded attachment.
const maxMediaBytes = 50 << 20

// ObjectStore is the storage capability the ingestor needs. The production
// implementation lives in internal/persistence.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) error
	Bucket() string
}

// GatewayConfig identifies the messaging gateway a media URL belongs to.
type GatewayConfig struct {
	BaseURL string
	APIKey  string
}

// Ingestor downloads gateway media and re-uploads it to object storage.
type Ingestor struct {
	store  ObjectStore
	client *http.Client
	logger *zap.Logger
}

// NewIngestor constructs an Ingestor. A nil client falls back to a client
// with a conservative timeout.
func NewIngestor(store ObjectStore, client *http.Client, logger *zap.Logger) *Ingestor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{store: store, client: client, logger: logger}
}

// Upload fetches mediaURL and stores the bytes under a per-lead,
// timestamp-named object, returning an opaque storage://bucket/path
// reference. The bucket is private; callers mint signed URLs at render time.
// Failures are logged and returned; the caller's policy is to persist the
// message without media.
func (i *Ingestor) Upload(ctx context.Context, mediaURL, messageType, leadID string, gateway *GatewayConfig) (string, error) {
	corrected := NormalizeMediaURL(mediaURL, gateway)
	if corrected == "" {
		i.logger.Warn("media: unusable media url", zap.String("url", mediaURL))
		return "", errors.New("unusable media url")
	}

	data, contentType, err := i.fetch(ctx, corrected, gateway)
	if err != nil {
		i.logger.Error("media: fetch failed", zap.String("url", corrected), zap.Error(err))
		return "", err
	}

	ext := extensionFor(contentType, messageType)
	objectName := fmt.Sprintf("leads/%s/%d_%s%s", leadID, time.Now().UnixMilli(), uuid.NewString()[:8], ext)

	if err := i.store.Upload(ctx, objectName, data, contentType); err != nil {
		i.logger.Error("media: upload failed", zap.String("object", objectName), zap.Error(err))
		return "", err
	}

	return fmt.Sprintf("storage://%s/%s", i.store.Bucket(), objectName), nil
}

// NormalizeMediaURL prepends a scheme when missing and rewrites
// localhost/127.0.0.1 hosts to the gateway's real host and port, preserving
// path and query. Returns "" when the URL cannot be parsed.
func NormalizeMediaURL(mediaURL string, gateway *GatewayConfig) string {
	trimmed := strings.TrimSpace(mediaURL)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return ""
	}

	if gateway != nil && gateway.BaseURL != "" && isLoopback(parsed.Hostname()) {
		base, err := url.Parse(gateway.BaseURL)
		if err == nil && base.Host != "" {
			parsed.Scheme = base.Scheme
			parsed.Host = base.Host
		}
	}
	return parsed.String()
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1"
}

// fetch downloads the media bytes. Requests against the gateway's own host
// carry gateway credentials; because deployments disagree on the expected
// header, the first attempt sends X-Api-Key and Authorization: Bearer
// together and a 401 is retried once with a bare Authorization header.
func (i *Ingestor) fetch(ctx context.Context, mediaURL string, gateway *GatewayConfig) ([]byte, string, error) {
	authenticated := false
	if gateway != nil && gateway.APIKey != "" && gateway.BaseURL != "" {
		if base, err := url.Parse(gateway.BaseURL); err == nil {
			if target, err := url.Parse(mediaURL); err == nil && target.Host == base.Host {
				authenticated = true
			}
		}
	}

	headerSets := []map[string]string{nil}
	if authenticated {
		headerSets = []map[string]string{
			{"X-Api-Key": gateway.APIKey, "Authorization": "Bearer " + gateway.APIKey},
			{"Authorization": gateway.APIKey},
		}
	}

	var lastStatus int
	for _, headers := range headerSets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
		if err != nil {
			return nil, "", err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := i.client.Do(req)
		if err != nil {
			return nil, "", err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			lastStatus = resp.StatusCode
			resp.Body.Close()
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, "", fmt.Errorf("media fetch returned status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
		contentType := resp.Header.Get("Content-Type")
		resp.Body.Close()
		if err != nil {
			return nil, "", err
		}
		if len(data) > maxMediaBytes {
			return nil, "", fmt.Errorf("media exceeds %d bytes", maxMediaBytes)
		}
		return data, contentType, nil
	}

	if lastStatus == http.StatusUnauthorized {
		return nil, "", errors.New("all gateway auth formats failed")
	}
	return nil, "", errors.New("media fetch failed")
}

var exactExtensions = map[string]string{
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"video/mp4":          ".mp4",
	"video/3gpp":         ".3gp",
	"audio/ogg":          ".ogg",
	"audio/mpeg":         ".mp3",
	"audio/mp4":          ".m4a",
	"application/pdf":    ".pdf",
	"text/vcard":         ".vcf",
	"application/msword": ".doc",
}

var substringExtensions = []struct {
	fragment string
	ext      string
}{
	{"jpeg", ".jpg"},
	{"jpg", ".jpg"},
	{"png", ".png"},
	{"webp", ".webp"},
	{"gif", ".gif"},
	{"ogg", ".ogg"},
	{"opus", ".ogg"},
	{"mpeg", ".mp3"},
	{"mp4", ".mp4"},
	{"pdf", ".pdf"},
	{"word", ".doc"},
	{"excel", ".xls"},
	{"sheet", ".xlsx"},
}

var typeFallbackExtensions = map[string]string{
	"image":    ".jpg",
	"audio":    ".ogg",
	"video":    ".mp4",
	"document": ".pdf",
	"sticker":  ".webp",
}

// extensionFor derives a file extension from the response Content-Type:
// exact match first, then substring match, then a message-type fallback.
func extensionFor(contentType, messageType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if ext, ok := exactExtensions[ct]; ok {
		return ext
	}
	for _, entry := range substringExtensions {
		if strings.Contains(ct, entry.fragment) {
			return entry.ext
		}
	}
	if ext, ok := typeFallbackExtensions[strings.ToLower(messageType)]; ok {
		return ext
	}
	return ".bin"
}
