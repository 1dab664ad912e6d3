package oracle

import "strings"

// ExtractJSON strips markdown code fences and surrounding prose from a
// model response, returning the JSON payload. Models frequently wrap
// JSON in ```json fences even when told not to.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.Contains(content, "```") {
		start := strings.Index(content, "```")
		rest := content[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			lang := strings.TrimSpace(rest[:nl])
			if lang == "" || lang == "json" {
				rest = rest[nl+1:]
			}
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		content = strings.TrimSpace(rest)
	}

	// Trim any leading prose before the first brace or bracket.
	objStart := strings.IndexByte(content, '{')
	arrStart := strings.IndexByte(content, '[')
	start := objStart
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
	}
	if start > 0 {
		content = content[start:]
	}

	objEnd := strings.LastIndexByte(content, '}')
	arrEnd := strings.LastIndexByte(content, ']')
	end := objEnd
	if arrEnd > end {
		end = arrEnd
	}
	if end >= 0 && end < len(content)-1 {
		content = content[:end+1]
	}

	return strings.TrimSpace(content)
}
