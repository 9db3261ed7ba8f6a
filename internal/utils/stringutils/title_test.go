package stringutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short content verbatim", "hello", 40, "hello"},
		{"exact length verbatim", strings.Repeat("a", 40), 40, strings.Repeat("a", 40)},
		{"long content truncated", strings.Repeat("a", 41), 40, strings.Repeat("a", 37) + "..."},
		{"empty content", "", 40, ""},
		{"branch length", strings.Repeat("b", 21), 20, strings.Repeat("b", 17) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.content, tt.maxLen))
		})
	}
}

func TestDeriveTitle_MultibyteRunes(t *testing.T) {
	content := strings.Repeat("日", 41)
	got := DeriveConversationTitle(content)
	assert.Equal(t, strings.Repeat("日", 37)+"...", got)
	assert.Equal(t, 40, len([]rune(got)))
}

func TestDeriveConversationTitle(t *testing.T) {
	assert.Equal(t, "what is the capital of France?", DeriveConversationTitle("what is the capital of France?"))

	long := "please explain the difference between processes and threads"
	got := DeriveConversationTitle(long)
	assert.Equal(t, 40, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, long[:37], strings.TrimSuffix(got, "..."))
}

func TestDeriveBranchTitle(t *testing.T) {
	assert.Equal(t, "short edit", DeriveBranchTitle("short edit"))

	got := DeriveBranchTitle("an edited message that is quite long")
	assert.Equal(t, 20, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}
