package logger

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"keyword-intel/pkg/utils"
)

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s]+`)
	secretPattern = regexp.MustCompile(`(?i)(password|login|key|token|secret|authorization)[=:]\s*[^\s,]+`)
)

// SecurityLogger masks credentials and upstream endpoints before they reach
// the log sink.
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger wraps base. A nil base falls back to the global logger.
func NewSecurityLogger(base *Logger) *SecurityLogger {
	if base == nil {
		base = GetLogger()
	}
	return &SecurityLogger{Logger: base}
}

// MaskAPIEndpoint keeps the host and replaces the path with a short hash.
func (sl *SecurityLogger) MaskAPIEndpoint(apiURL string) string {
	if apiURL == "" {
		return ""
	}

	parsedURL, err := url.Parse(apiURL)
	if err != nil || parsedURL.Host == "" {
		return "api-endpoint#" + utils.ShortHash(apiURL)
	}

	return fmt.Sprintf("%s/api#%s", parsedURL.Host, utils.ShortHash(apiURL))
}

// MaskCredential reveals only the first two characters of a secret.
func (sl *SecurityLogger) MaskCredential(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "***"
	}
	return secret[:2] + "***#" + utils.ShortHash(secret)
}

// MaskSensitiveData masks known-sensitive keys in a field map.
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))

	for key, value := range data {
		lowerKey := strings.ToLower(key)
		str, isString := value.(string)

		switch {
		case !isString:
			masked[key] = value
		case strings.Contains(lowerKey, "password"),
			strings.Contains(lowerKey, "secret"),
			strings.Contains(lowerKey, "token"),
			strings.Contains(lowerKey, "login"):
			masked[key] = sl.MaskCredential(str)
		case strings.Contains(lowerKey, "url"):
			masked[key] = sl.MaskAPIEndpoint(str)
		default:
			masked[key] = value
		}
	}

	return masked
}

// MaskLogMessage masks URLs and inline credentials in free text.
func (sl *SecurityLogger) MaskLogMessage(message string) string {
	masked := urlPattern.ReplaceAllStringFunc(message, sl.MaskAPIEndpoint)
	return secretPattern.ReplaceAllString(masked, "${1}=***")
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	if fields != nil {
		sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Info(sl.MaskLogMessage(msg))
		return
	}
	sl.Logger.Info(sl.MaskLogMessage(msg))
}

// SafeError logs error with automatic sensitive data masking
func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	maskedFields := map[string]interface{}{
		"error": sl.MaskLogMessage(err.Error()),
	}
	for k, v := range sl.MaskSensitiveData(fields) {
		maskedFields[k] = v
	}

	sl.Logger.WithFields(maskedFields).Error(sl.MaskLogMessage(msg))
}
