package engine

import "github.com/simphone/ussdd/internal/menu"

// ResolvePlaceholders rewrites CDP property values that are exactly a
// placeholder string ($input, $input_prev, $input_prev2) with the last,
// second-to-last, or third-to-last input-buffer entry. Placeholders the
// buffer cannot satisfy pass through literally, as do non-string values.
// The input map is never modified.
func ResolvePlaceholders(properties map[string]any, inputBuffer []string) map[string]any {
	if properties == nil {
		return nil
	}

	resolved := make(map[string]any, len(properties))
	for key, value := range properties {
		str, ok := value.(string)
		if !ok {
			resolved[key] = value
			continue
		}
		if sub, ok := substitute(str, inputBuffer); ok {
			resolved[key] = sub
		} else {
			resolved[key] = value
		}
	}
	return resolved
}

func substitute(placeholder string, buffer []string) (string, bool) {
	var back int
	switch placeholder {
	case menu.PlaceholderInput:
		back = 1
	case menu.PlaceholderInputPrev:
		back = 2
	case menu.PlaceholderInputPrev2:
		back = 3
	default:
		return "", false
	}
	if len(buffer) < back {
		return "", false
	}
	return buffer[len(buffer)-back], true
}
