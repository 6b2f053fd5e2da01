// Package prompt builds the model prompts for question answering and
// abbreviation extraction.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const qaTemplate = `You are a helpful assistant for question answering with documents.

You are given a user question and OPTIONAL document text.
Use the document only as supporting context.
If the document does not contain enough information, say you are not sure rather than guessing.

Document context:
-----------------
%s

-----------------
User question: %s

Answer clearly and concisely:
`

const abbrevTemplate = `You are an assistant that extracts abbreviations from scientific articles.

You are given the text of a single article.
Your task is to build an abbreviation index.

Instructions:
- Find all abbreviations defined in forms like "full term (ABBR)" or "ABBR (full term)".
- Only include abbreviations that actually appear in the article.
- For each abbreviation, output exactly one line with the format:
  ABBR: full term
- Sort the output alphabetically by abbreviation.
- Do NOT add explanations beyond "ABBR: full term".
- If you are unsure about an item, skip it instead of guessing.

Article text:
-----------------
%s
-----------------

Now output the abbreviation index in the requested format:
`

// QA builds a question-answering prompt. The document context is truncated to
// maxContextChars at a word boundary; an empty context still produces a valid
// prompt (the question stands alone).
func QA(question, context string, maxContextChars int) string {
	return fmt.Sprintf(qaTemplate, Truncate(context, maxContextChars), question)
}

// Abbreviations builds an abbreviation-index extraction prompt over one
// window of article text.
func Abbreviations(articleText string) string {
	return fmt.Sprintf(abbrevTemplate, articleText)
}

// Truncate limits text to max bytes, cutting at a word boundary so the model
// never sees a half word, or at a rune boundary when the prefix holds no
// whitespace at all.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	end := max
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n")
}
