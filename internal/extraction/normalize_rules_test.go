package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNormalization_IdentityAlwaysAccepted(t *testing.T) {
	assert.True(t, validateNormalization("合同", "合同", "zh"))
}

func TestValidateNormalization_ChineseStructuralMarker(t *testing.T) {
	assert.True(t, validateNormalization("第36条", "第XX条", "zh"))
	assert.False(t, validateNormalization("第36条", "完全不同的文本", "zh"))
}

func TestValidateNormalization_EnglishStructuralMarker(t *testing.T) {
	assert.True(t, validateNormalization("Article 36", "Article XX", "en"))
}

func TestValidateNormalization_EnglishSingularPluralComposite(t *testing.T) {
	assert.True(t, validateNormalization("term", "term/terms", "en"))
	assert.True(t, validateNormalization("terms", "term/terms", "en"))
}

func TestValidateNormalization_RejectsUnrelatedDrift(t *testing.T) {
	assert.False(t, validateNormalization("合同双方", "完全不相关的词语", "zh"))
	assert.False(t, validateNormalization("liability", "unrelated concept entirely", "en"))
}

func TestAcceptsByOverlap_CharacterSharingRatio(t *testing.T) {
	assert.True(t, acceptsByOverlap("合同法", "合同", 0.5))
	assert.False(t, acceptsByOverlap("合同法", "民法", 0.8))
}

func TestSplitComposite(t *testing.T) {
	singular, plural, ok := splitComposite("term/terms")
	assert.True(t, ok)
	assert.Equal(t, "term", singular)
	assert.Equal(t, "terms", plural)

	_, _, ok = splitComposite("no-slash")
	assert.False(t, ok)
}
