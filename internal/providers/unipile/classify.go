package unipile

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Classify maps a LinkedIn provider error to the pipeline error taxonomy.
// HTTP 429 and 503 are transient alongside network and timeout failures.
func Classify(err error) interfaces.ErrorClassification {
	if err == nil {
		return interfaces.ErrorClassification{Type: models.ErrorKindUnknown}
	}

	var httpErr *apiError
	if errors.As(err, &httpErr) {
		return classifyStatus(httpErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return interfaces.ErrorClassification{Type: models.ErrorKindTimeout, IsTransient: true, Message: err.Error()}
		}
		return interfaces.ErrorClassification{Type: models.ErrorKindNetwork, IsTransient: true, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return interfaces.ErrorClassification{Type: models.ErrorKindTimeout, IsTransient: true, Message: err.Error()}
	}

	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "timeout"):
		return interfaces.ErrorClassification{Type: models.ErrorKindTimeout, IsTransient: true, Message: err.Error()}
	case strings.Contains(message, "connection refused"), strings.Contains(message, "econn"),
		strings.Contains(message, "no such host"), strings.Contains(message, "network"):
		return interfaces.ErrorClassification{Type: models.ErrorKindNetwork, IsTransient: true, Message: err.Error()}
	case strings.Contains(message, "429"), strings.Contains(message, "rate limit"):
		return interfaces.ErrorClassification{Type: models.ErrorKindRateLimit, IsTransient: true, Message: err.Error()}
	default:
		return interfaces.ErrorClassification{Type: models.ErrorKindUnknown, Message: err.Error()}
	}
}

func classifyStatus(httpErr *apiError) interfaces.ErrorClassification {
	message := httpErr.Error()
	switch {
	case httpErr.StatusCode == 401 || httpErr.StatusCode == 403:
		return interfaces.ErrorClassification{Type: models.ErrorKindAuth, Message: message}
	case httpErr.StatusCode == 404:
		return interfaces.ErrorClassification{Type: models.ErrorKindNotFound, Message: message}
	case httpErr.StatusCode == 422 || httpErr.StatusCode == 400:
		return interfaces.ErrorClassification{Type: models.ErrorKindValidation, Message: message}
	case httpErr.StatusCode == 429:
		return interfaces.ErrorClassification{Type: models.ErrorKindRateLimit, IsTransient: true, Message: message}
	case httpErr.StatusCode == 503:
		return interfaces.ErrorClassification{Type: models.ErrorKindAPI, IsTransient: true, Message: message}
	case httpErr.StatusCode >= 500:
		return interfaces.ErrorClassification{Type: models.ErrorKindAPI, IsTransient: true, Message: message}
	default:
		return interfaces.ErrorClassification{Type: models.ErrorKindAPI, Message: message}
	}
}
