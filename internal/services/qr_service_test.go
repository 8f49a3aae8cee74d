package services

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQREncoder_EncodeDataURI(t *testing.T) {
	encoder := NewQREncoder("")

	image, err := encoder.Encode("hello")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(image, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(image, "data:image/png;base64,"))
	require.NoError(t, err)
	// PNG magic bytes.
	require.True(t, len(raw) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}

func TestQREncoder_Deterministic(t *testing.T) {
	encoder := NewQREncoder("")

	first, err := encoder.Encode("same payload")
	require.NoError(t, err)
	second, err := encoder.Encode("same payload")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQREncoder_LongPayload(t *testing.T) {
	encoder := NewQREncoder("")

	// Signed tokens run a few hundred bytes; make sure there is headroom.
	payload := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 30)
	image, err := encoder.Encode(payload)
	require.NoError(t, err)
	assert.NotEmpty(t, image)
}

func TestQREncoder_PayloadShape(t *testing.T) {
	raw := NewQREncoder("")
	assert.Equal(t, "some.jwt.token", raw.Payload("some.jwt.token"))

	withURL := NewQREncoder("https://clearance.school.edu")
	assert.Equal(t,
		"https://clearance.school.edu/viewPermit/?token=some.jwt.token",
		withURL.Payload("some.jwt.token"))
}

func TestQREncoder_PayloadEscaped(t *testing.T) {
	withURL := NewQREncoder("https://clearance.school.edu")
	payload := withURL.Payload("a+b c")
	assert.NotContains(t, payload, " ")
}
