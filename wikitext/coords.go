package wikitext

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoCoords is returned by ParseCoords for text without a
// {{coord}} template.
var ErrNoCoords = errors.New("no coord data found")

var coordRE = regexp.MustCompile(`(?i){{\s*coord\s*\|([^}]*)}}`)

// A Coord is a point in decimal degrees.
type Coord struct {
	Lat float64
	Lon float64
}

// ParseCoords parses the first {{coord}} template in text, as
// described at
// https://en.wikipedia.org/wiki/Template:Coord
//
// Decimal (34.2|-118.1), decimal with hemispheres (44.1|N|87.9|W) and
// degrees/minutes/seconds (57|18|22|N|4|27|32|W) are understood.
func ParseCoords(text string) (Coord, error) {
	m := coordRE.FindStringSubmatch(Clean(text))
	if m == nil {
		return Coord{}, ErrNoCoords
	}

	params := strings.Split(m[1], "|")
	start := -1
	for i := range params {
		params[i] = strings.TrimSpace(params[i])
		if _, err := strconv.ParseFloat(params[i], 64); start < 0 && err == nil {
			start = i
		}
	}
	if start < 0 {
		return Coord{}, ErrNoCoords
	}
	params = params[start:]

	lat, rest, err := angle(params, "N", "S")
	if err != nil {
		return Coord{}, err
	}
	lon, _, err := angle(rest, "E", "W")
	if err != nil {
		return Coord{}, err
	}

	if math.Abs(lat) > 90 {
		return Coord{}, fmt.Errorf("invalid latitude: %v", lat)
	}
	if math.Abs(lon) > 180 {
		return Coord{}, fmt.Errorf("invalid longitude: %v", lon)
	}
	return Coord{Lat: lat, Lon: lon}, nil
}

// angle reads one of latitude or longitude off the front of params:
// up to three numbers (degrees, minutes, seconds) closed by a
// hemisphere letter, or a lone signed decimal.
func angle(params []string, pos, neg string) (float64, []string, error) {
	var parts []float64
	i := 0
	for ; i < len(params) && i < 3; i++ {
		f, err := strconv.ParseFloat(params[i], 64)
		if err != nil {
			break
		}
		parts = append(parts, f)
	}
	if len(parts) == 0 {
		return 0, nil, ErrNoCoords
	}

	if i >= len(params) || (params[i] != pos && params[i] != neg) {
		// No hemisphere, so only plain decimals make sense.
		return parts[0], params[1:], nil
	}

	rv := parts[0]
	for j, div := range []float64{60, 3600}[:len(parts)-1] {
		rv += parts[j+1] / div
	}
	if params[i] == neg {
		rv = -rv
	}
	return rv, params[i+1:], nil
}
