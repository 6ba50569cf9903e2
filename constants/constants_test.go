package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearsTests(t *testing.T) {
	assert.True(t, BearsTests("COA"))
	assert.True(t, BearsTests("SCD+COA"))
	for _, label := range []string{"SCD", "DDT", "Other", "coa", " COA", "COA\n", "", ImageEncodingError} {
		assert.False(t, BearsTests(label), label)
	}
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown("DDT"))
	assert.True(t, IsKnown("SCD+COA"))
	assert.False(t, IsKnown(" SCD+COA\n"))
	assert.False(t, IsKnown("COA\n"))
	assert.False(t, IsKnown("Invoice"))
}

func TestMIMEForExt(t *testing.T) {
	assert.Equal(t, "image/png", MIMEForExt(".PNG"))
	assert.Equal(t, "image/jpeg", MIMEForExt("jpeg"))
	assert.Equal(t, DefaultImageMIME, MIMEForExt(".tiff"))
	assert.False(t, IsAllowedImageExt(".pdf"))
}
