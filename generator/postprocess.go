package generator

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyOutput is returned when the model answers with nothing but whitespace.
var ErrEmptyOutput = errors.New("model returned empty content")

// PostProcess 校验模型输出，去掉首尾空白。
func PostProcess(raw string) (string, error) {
	out := strings.TrimSpace(raw)
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}

var titleRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// ExtractTitle returns the first level-one markdown heading, or "".
func ExtractTitle(md string) string {
	m := titleRe.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
