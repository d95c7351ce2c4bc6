package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	roomRe  = regexp.MustCompile(`^([A-Za-z]+)\s*-?\s*(\d)(\d{2,})$`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// ParsedRoom holds the structured data parsed from a room label such as "B-202".
type ParsedRoom struct {
	Room  string
	Block string
	Floor int
	Seq   int
}

// ParseRoom extracts block, floor, and sequence number from a raw room label.
// The first digit of the number is the floor, the rest is the room on that floor.
func ParseRoom(raw string) (ParsedRoom, error) {
	s := strings.TrimSpace(raw)
	s = spaceRe.ReplaceAllString(s, " ")

	m := roomRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse room: %q", raw)
	}

	block := strings.ToUpper(m[1])
	floor, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse floor from room: %q", raw)
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse number from room: %q", raw)
	}

	return ParsedRoom{
		Room:  fmt.Sprintf("%s-%d%s", block, floor, m[3]),
		Block: block,
		Floor: floor,
		Seq:   seq,
	}, nil
}
