// Package prompts renders the quiz assistant's system prompt and sanitizes
// user chat input before it reaches a model.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var templateFS embed.FS

// MaxMessageRunes caps a chat message passed to the model.
const MaxMessageRunes = 2000

var (
	userMessageRegex        = regexp.MustCompile(`(?i)</?\s*user-message\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

var (
	loadOnce     sync.Once
	loadErr      error
	chatTemplate *template.Template
)

// ChatData holds template data for the assistant system prompt.
type ChatData struct {
	Lang       string
	Categories []string
}

// Load parses the embedded templates once.
func Load() error {
	loadOnce.Do(func() {
		content, err := templateFS.ReadFile("templates/chat.txt")
		if err != nil {
			loadErr = fmt.Errorf("read chat template: %w", err)
			return
		}
		tmpl, err := template.New("chat").
			Funcs(template.FuncMap{"join": strings.Join}).
			Parse(string(content))
		if err != nil {
			loadErr = fmt.Errorf("parse chat template: %w", err)
			return
		}
		chatTemplate = tmpl
	})
	return loadErr
}

// BuildChatSystemPrompt renders the assistant's system instruction.
func BuildChatSystemPrompt(data ChatData) (string, error) {
	if err := Load(); err != nil {
		return "", err
	}
	if chatTemplate == nil {
		return "", errors.New("chat template not loaded")
	}
	if data.Lang == "" {
		data.Lang = "en"
	}

	var buf bytes.Buffer
	if err := chatTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WrapMessage sanitizes a user message and encloses it in the tags the
// system prompt refers to. It returns "" for a message that is empty after
// sanitizing.
func WrapMessage(msg string) string {
	msg = SanitizeMessage(msg)
	if msg == "" {
		return ""
	}
	return "<user-message>\n" + msg + "\n</user-message>"
}

// SanitizeMessage strips prompt delimiter tags, trims whitespace and caps the
// message length.
func SanitizeMessage(msg string) string {
	msg = userMessageRegex.ReplaceAllString(msg, "")
	msg = systemInstructionsRegex.ReplaceAllString(msg, "")
	msg = strings.TrimSpace(msg)

	if utf8.RuneCountInString(msg) > MaxMessageRunes {
		runes := []rune(msg)
		msg = string(runes[:MaxMessageRunes]) + "\n\n[Message truncated due to length]"
	}
	return msg
}
