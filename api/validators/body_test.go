package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
)

type samplePayload struct {
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
	ComboID string `json:"combo_id" validate:"required"`
	Boxes   int    `json:"boxes" validate:"min=0"`
}

func decodeSample(t *testing.T, body string) (samplePayload, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest samplePayload
	err := DecodeJSONBody(req, &dest)
	return dest, err
}

func TestDecodeJSONBodyValid(t *testing.T) {
	t.Parallel()

	dest, err := decodeSample(t, `{"pincode":"411038","combo_id":"A-9011","boxes":10}`)
	require.NoError(t, err)
	assert.Equal(t, "411038", dest.Pincode)
	assert.Equal(t, 10, dest.Boxes)
}

func TestDecodeJSONBodyMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := decodeSample(t, `{"pincode":`)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyUnknownField(t *testing.T) {
	t.Parallel()

	_, err := decodeSample(t, `{"pincode":"411038","combo_id":"A-9011","surprise":true}`)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyFieldErrorsUseJSONNames(t *testing.T) {
	t.Parallel()

	_, err := decodeSample(t, `{"pincode":"41103x","boxes":-1}`)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be numeric", details["pincode"])
	assert.Equal(t, "is required", details["combo_id"])
	assert.Equal(t, "must be at least 0", details["boxes"])
}
