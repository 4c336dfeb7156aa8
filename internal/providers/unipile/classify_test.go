package unipile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/venari/internal/models"
)

func TestClassify_HTTPStatuses(t *testing.T) {
	tests := []struct {
		status        int
		wantKind      models.ErrorKind
		wantTransient bool
	}{
		{401, models.ErrorKindAuth, false},
		{403, models.ErrorKindAuth, false},
		{404, models.ErrorKindNotFound, false},
		{400, models.ErrorKindValidation, false},
		{422, models.ErrorKindValidation, false},
		{429, models.ErrorKindRateLimit, true},
		{503, models.ErrorKindAPI, true},
		{500, models.ErrorKindAPI, true},
		{418, models.ErrorKindAPI, false},
	}
	for _, tt := range tests {
		classification := Classify(&apiError{StatusCode: tt.status, Body: "x"})
		assert.Equal(t, tt.wantKind, classification.Type, "status %d", tt.status)
		assert.Equal(t, tt.wantTransient, classification.IsTransient, "status %d", tt.status)
	}
}

func TestClassify_Messages(t *testing.T) {
	tests := []struct {
		message       string
		wantKind      models.ErrorKind
		wantTransient bool
	}{
		{"dial tcp: i/o timeout", models.ErrorKindTimeout, true},
		{"connection refused", models.ErrorKindNetwork, true},
		{"no such host", models.ErrorKindNetwork, true},
		{"rate limit exceeded", models.ErrorKindRateLimit, true},
		{"something odd happened", models.ErrorKindUnknown, false},
	}
	for _, tt := range tests {
		classification := Classify(errors.New(tt.message))
		assert.Equal(t, tt.wantKind, classification.Type, tt.message)
		assert.Equal(t, tt.wantTransient, classification.IsTransient, tt.message)
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Equal(t, models.ErrorKindUnknown, Classify(nil).Type)
}
