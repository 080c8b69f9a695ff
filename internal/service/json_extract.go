package service

import "strings"

func extractFirstJSONObject(input string) string {
	return extractFirstJSONValue(input, '{', '}')
}

func extractFirstJSONArray(input string) string {
	return extractFirstJSONValue(input, '[', ']')
}

func extractFirstJSONValue(input string, openCh, closeCh byte) string {
	start := strings.IndexByte(input, openCh)
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
			if depth < 0 {
				return ""
			}
		}
	}

	return ""
}
