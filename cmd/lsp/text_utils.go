package main

func getLine(content string, lineIndex int) string {
	start := 0
	currentLine := 0
	n := len(content)

	for i := 0; i < n; i++ {
		if content[i] == '\n' {
			if currentLine == lineIndex {
				return content[start:i]
			}
			start = i + 1
			currentLine++
		}
	}

	if currentLine == lineIndex {
		return content[start:]
	}

	return ""
}

// chainAt returns the dotted identifier chain ending with the word under
// the cursor, e.g. "a.b.c" when the cursor is on c, together with the
// 0-based column where the chain starts.
func chainAt(content string, line, char int) (string, int) {
	lineStr := getLine(content, line)
	if char < 0 || char > len(lineStr) {
		return "", 0
	}
	if char == len(lineStr) || !isIdentifierChar(lineStr[char]) {
		// Cursor right after the last character of a word
		if char == 0 || !isIdentifierChar(lineStr[char-1]) {
			return "", 0
		}
		char--
	}

	end := char
	for end < len(lineStr) && isIdentifierChar(lineStr[end]) {
		end++
	}
	start := chainStart(lineStr, char)
	return lineStr[start:end], start
}

// receiverBefore returns the chain in front of the dot preceding the word
// being typed at char, or "" when there is no dot.
func receiverBefore(content string, line, char int) (string, int) {
	lineStr := getLine(content, line)
	if char > len(lineStr) {
		char = len(lineStr)
	}
	i := char
	for i > 0 && isIdentifierChar(lineStr[i-1]) {
		i--
	}
	if i == 0 || lineStr[i-1] != '.' {
		return "", 0
	}
	dot := i - 1
	if dot == 0 || !isIdentifierChar(lineStr[dot-1]) {
		return "", 0
	}
	start := chainStart(lineStr, dot-1)
	return lineStr[start:dot], start
}

// chainStart walks left from pos across identifiers joined by dots.
func chainStart(lineStr string, pos int) int {
	start := pos
	for {
		for start > 0 && isIdentifierChar(lineStr[start-1]) {
			start--
		}
		if start > 1 && lineStr[start-1] == '.' && isIdentifierChar(lineStr[start-2]) {
			start--
			continue
		}
		return start
	}
}

func isIdentifierChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
