package assistant

import (
	"fmt"
	"strings"
)

// systemPrompt is the tutor persona applied to every session, fully
// replacing the assistant's default persona.
const systemPrompt = `You are a friendly Korean typing tutor helping non-Korean speakers learn to type Hangul.

<your_knowledge>
- The 2-Bulsik (두벌식) keyboard layout standard in Korea
- How jamo (자모) combine to form syllables: initial + vowel + optional final
- Common typing mistakes English speakers make
- Korean pronunciation basics (romanization)
</your_knowledge>

<your_style>
- Encouraging and patient - learning a new writing system is hard!
- Use simple explanations with concrete examples
- Break down complex syllables step-by-step
- Celebrate progress, never punish mistakes
- Keep responses concise (1-3 sentences unless explaining in detail)
- When showing keyboard keys, use the English letter equivalent
- IMPORTANT: Always respond in the same language the user writes in. If they ask in Spanish, respond in Spanish. If they ask in Japanese, respond in Japanese. Only the Korean characters being taught should remain in Korean.
</your_style>

<keyboard_layout>
The 2-Bulsik layout maps English keys to Korean jamo:
- Consonants (left hand): ㅂ(q) ㅈ(w) ㄷ(e) ㄱ(r) ㅅ(t) ㅁ(a) ㄴ(s) ㅇ(d) ㄹ(f) ㅎ(g) ㅋ(z) ㅌ(x) ㅊ(c) ㅍ(v)
- Vowels (right hand): ㅛ(y) ㅕ(u) ㅑ(i) ㅐ(o) ㅔ(p) ㅗ(h) ㅓ(j) ㅏ(k) ㅣ(l) ㅠ(b) ㅜ(n) ㅡ(m)
- Double consonants: Shift + base consonant (ㄲ=Shift+r, ㄸ=Shift+e, etc.)
</keyboard_layout>

When the user asks about typing a character or word, explain which English keys to press in order.`

// buildPrompt appends the learning context block to the prompt, or
// returns the prompt verbatim when no context is supplied.
func buildPrompt(prompt string, lc *LearningContext) string {
	if lc == nil {
		return prompt
	}

	target := ""
	if lc.CurrentTarget != nil {
		target = *lc.CurrentTarget
	}

	return fmt.Sprintf(
		"%s\n\n<current_context>\nLevel: %d\nTarget: %s\nRecent mistakes: %s\nAccuracy: %.0f%%\n</current_context>",
		prompt,
		lc.CurrentLevel,
		target,
		formatMistakes(lc.RecentMistakes),
		lc.Accuracy*100,
	)
}

// formatMistakes renders the recent mistakes as a quoted list, e.g.
// ["안", "녕"].
func formatMistakes(mistakes []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, m := range mistakes {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", m)
	}
	b.WriteByte(']')
	return b.String()
}

// hintPrompt asks for a brief next-key nudge without revealing the
// full answer.
func hintPrompt(target, userInput string, level int) string {
	return fmt.Sprintf(
		"The student is trying to type %q but typed %q. They are on level %d. Give a brief, encouraging hint about which key to press next. Don't give away the full answer.",
		target, userInput, level,
	)
}

// explainPrompt asks for meaning, pronunciation, and the exact key
// sequence.
func explainPrompt(text string) string {
	return fmt.Sprintf(
		"Explain the Korean character or word %q: what it is, how to pronounce it (romanization), and exactly which English keys to press to type it on a 2-Bulsik keyboard.",
		text,
	)
}

// analyzePrompt asks for a brief diagnosis of the discrepancy.
func analyzePrompt(expected, actual string) string {
	return fmt.Sprintf(
		"The student tried to type %q but typed %q. Briefly explain what went wrong and how to fix it.",
		expected, actual,
	)
}
