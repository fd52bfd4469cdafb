package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadForm struct {
	DocumentType string `form:"document_type" validate:"required,document_type"`
	Reason       string `json:"reason" validate:"omitempty,not_blank"`
	Status       string `json:"status" validate:"omitempty,enrollment_status"`
}

func TestValidator(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&uploadForm{DocumentType: "id_card", Status: "pending_approval"}))

	err := v.Validate(&uploadForm{DocumentType: "passport", Reason: "   ", Status: "archived"})
	require.Error(t, err)

	var fieldErrors ValidationErrors
	require.True(t, errors.As(err, &fieldErrors))
	require.Len(t, fieldErrors, 3)

	byField := map[string]ValidationError{}
	for _, fe := range fieldErrors {
		byField[fe.Field] = fe
	}
	assert.Equal(t, "document_type", byField["document_type"].Rule)
	assert.Contains(t, byField["document_type"].Message, "medical_certificate")
	assert.Equal(t, "not_blank", byField["reason"].Rule)
	assert.Equal(t, "enrollment_status", byField["status"].Rule)
	assert.Equal(t, "validation failed: 3 field errors", err.Error())
}
