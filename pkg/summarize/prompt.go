package summarize

import (
	"fmt"
	"unicode/utf8"
)

// MaxContentLength caps the article text embedded in a prompt, in characters.
const MaxContentLength = 30000

func VideoPrompt(videoURL string) string {
	return fmt.Sprintf(`Please provide a comprehensive summary of this YouTube video: %s

Please include:
- Main topics and themes discussed
- Key points and takeaways
- Important details, facts, or insights shared
- Overall conclusion or main message
- Any actionable advice or recommendations

Format the summary in a clear, engaging way that would work well for text-to-speech playback. Use natural language and avoid excessive formatting or bullet points.`, videoURL)
}

func ArticlePrompt(text, articleURL, title string) string {
	return fmt.Sprintf(`Please provide a concise but comprehensive summary of the following article:

Title: %s
URL: %s

Content:
%s

Please include:
- Main topic and central thesis
- Key points and arguments presented
- Important facts, data, or evidence
- Conclusions or implications
- Any actionable insights or recommendations

Format the summary in a natural, conversational style suitable for text-to-speech playback. Aim for clarity and engagement while maintaining accuracy.`, title, articleURL, truncate(text, MaxContentLength))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
