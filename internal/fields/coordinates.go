package fields

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"stolpersteine/internal"
)

var reCoordinateStart = regexp.MustCompile(`(?i)\{\{\s*Coordinate\s*\|`)

// ParseCoordinates reads NS and EW from the first {{Coordinate}} template.
// Parameter order and any other parameters are irrelevant.
func ParseCoordinates(fragment string) *internal.Coordinates {
	spans := coordinateTemplates(fragment)
	if len(spans) == 0 {
		return nil
	}
	start, end := spans[0][0], spans[0][1]
	body := fragment[start:end]
	body = body[strings.Index(body, "|")+1 : len(body)-2]

	var ns, ew string
	for _, param := range splitParams(body) {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "NS":
			ns = strings.TrimSpace(value)
		case "EW":
			ew = strings.TrimSpace(value)
		}
	}

	lat, ok := parseDegrees(ns, "S")
	if !ok {
		return nil
	}
	lon, ok := parseDegrees(ew, "W")
	if !ok {
		return nil
	}
	return &internal.Coordinates{Latitude: lat, Longitude: lon}
}

// parseDegrees accepts decimal degrees or the slash form d/m/s/H used by
// older list pages. negative is the hemisphere letter that flips the sign.
func parseDegrees(value, negative string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	if !strings.Contains(value, "/") {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	}

	parts := strings.Split(value, "/")
	sign := 1.0
	if last := strings.ToUpper(strings.TrimSpace(parts[len(parts)-1])); last != "" && strings.Trim(last, "0123456789.") != "" {
		if last == negative {
			sign = -1
		}
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}

	deg := 0.0
	scale := 1.0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			scale /= 60
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		deg += f * scale
		scale /= 60
	}
	return sign * deg, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// coordinateTemplates returns the [start, end) byte ranges of every closed
// {{Coordinate}} template in text. Templates nested in its parameters
// (such as {{!}} in name=) are part of the range.
func coordinateTemplates(text string) [][2]int {
	out := [][2]int{}
	offset := 0
	for {
		loc := reCoordinateStart.FindStringIndex(text[offset:])
		if loc == nil {
			return out
		}
		start := offset + loc[0]
		end := closingBraces(text, start)
		if end < 0 {
			return out
		}
		out = append(out, [2]int{start, end})
		offset = end
	}
}

// closingBraces returns the index just past the }} that closes the {{
// at start, or -1 when the template is never closed.
func closingBraces(text string, start int) int {
	depth := 0
	for i := start; i < len(text)-1; {
		switch {
		case strings.HasPrefix(text[i:], "{{"):
			depth++
			i += 2
		case strings.HasPrefix(text[i:], "}}"):
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return -1
}

// splitParams splits template parameters on pipes outside nested
// templates and links.
func splitParams(body string) []string {
	parts := []string{}
	depth := 0
	start := 0
	for i := 0; i < len(body); i++ {
		switch {
		case strings.HasPrefix(body[i:], "{{") || strings.HasPrefix(body[i:], "[["):
			depth++
			i++
		case depth > 0 && (strings.HasPrefix(body[i:], "}}") || strings.HasPrefix(body[i:], "]]")):
			depth--
			i++
		case depth == 0 && body[i] == '|':
			parts = append(parts, body[start:i])
			start = i + 1
		}
	}
	return append(parts, body[start:])
}
