package stringutils

// Title length budgets for derived conversation and branch titles.
const (
	ConversationTitleMax = 40
	BranchTitleMax       = 20
)

const ellipsis = "..."

// DeriveTitle produces a short title from message content. Content at or
// under maxLen runes is returned verbatim; longer content is cut to
// maxLen-3 runes and suffixed with an ellipsis marker. The derivation is
// deterministic: equal content always yields an equal title.
func DeriveTitle(content string, maxLen int) string {
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	cut := maxLen - len(ellipsis)
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + ellipsis
}

// DeriveConversationTitle derives a conversation title from the first user turn.
func DeriveConversationTitle(content string) string {
	return DeriveTitle(content, ConversationTitleMax)
}

// DeriveBranchTitle derives a branch title from the edited message content.
func DeriveBranchTitle(content string) string {
	return DeriveTitle(content, BranchTitleMax)
}
