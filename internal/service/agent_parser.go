package service

import (
	"errors"
	"regexp"
	"strings"
)

var (
	errNoJSONObject = errors.New("no json object in response")

	fenceStartRe = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEndRe   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// extractJSONPayload limpia la respuesta del LLM y devuelve el primer objeto JSON balanceado.
func extractJSONPayload(raw string) (string, error) {
	cleaned := cleanLLMJSONResponse(raw)
	if cleaned == "" {
		return "", errNoJSONObject
	}
	obj := extractFirstJSONObject(cleaned)
	if obj == "" {
		return "", errNoJSONObject
	}
	return obj, nil
}

// cleanLLMJSONResponse quita fences ```json ... ``` y BOM.
func cleanLLMJSONResponse(raw string) string {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF")
	if s == "" {
		return ""
	}
	s = fenceStartRe.ReplaceAllString(s, "")
	s = fenceEndRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// extractFirstJSONObject recorre el texto contando llaves fuera de strings.
// Tolera prosa antes o despues del objeto, comun en modelos sin modo JSON.
func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	var (
		inString bool
		escape   bool
		depth    int
	)
	for i := start; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}
