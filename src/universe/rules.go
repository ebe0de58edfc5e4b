package universe

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

//ErrInvalidRule is returned when a rule descriptor can not be built or parsed
var ErrInvalidRule = errors.New("invalid rule")

//maxNeighbours is the biggest possible neighbour count in the Moore neighbourhood
const maxNeighbours = 8

//Rules is the immutable descriptor of the survival and birth neighbour counts
//bit n of survive/birth is set when the count n applies
type Rules struct {
	name    string
	survive uint16
	birth   uint16
}

//ConwayRules is the classic B3/S23 rule set, the default one
var ConwayRules = mustRules("conway", []int{2, 3}, []int{3})

//rulePresets - the named rule sets which can be selected by name
var rulePresets = map[string]Rules{
	"conway":           ConwayRules,
	"highlife":         mustRules("highlife", []int{2, 3}, []int{3, 6}),
	"seeds":            mustRules("seeds", nil, []int{2}),
	"daynight":         mustRules("daynight", []int{3, 4, 6, 7, 8}, []int{3, 6, 7, 8}),
	"lifewithoutdeath": mustRules("lifewithoutdeath", []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, []int{3}),
	"maze":             mustRules("maze", []int{1, 2, 3, 4, 5}, []int{3}),
}

//NewRules creates the rule descriptor, counts must be in [0, 8]
//birth on 0 neighbours is rejected: it would fill the whole unbounded plane
func NewRules(name string, survive []int, birth []int) (Rules, error) {
	s, err := countMask(survive)
	if err != nil {
		return Rules{}, fmt.Errorf("survive counts of %q: %w", name, err)
	}
	b, err := countMask(birth)
	if err != nil {
		return Rules{}, fmt.Errorf("birth counts of %q: %w", name, err)
	}
	if b&1 != 0 {
		return Rules{}, fmt.Errorf("birth counts of %q: %w: B0 is not supported on an unbounded board", name, ErrInvalidRule)
	}
	return Rules{name: name, survive: s, birth: b}, nil
}

func mustRules(name string, survive []int, birth []int) Rules {
	r, err := NewRules(name, survive, birth)
	if err != nil {
		panic(err)
	}
	return r
}

func countMask(counts []int) (uint16, error) {
	var m uint16
	for _, n := range counts {
		if n < 0 || n > maxNeighbours {
			return 0, fmt.Errorf("%w: neighbour count %d out of [0, %d]", ErrInvalidRule, n, maxNeighbours)
		}
		m |= 1 << n
	}
	return m, nil
}

//ParseRules parses the B/S notation, e.g. "B3/S23" or "S23/B3"
func ParseRules(notation string) (Rules, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(notation)), "/")
	if len(parts) != 2 {
		return Rules{}, fmt.Errorf("%w: %q is not in B/S notation", ErrInvalidRule, notation)
	}
	var birth, survive []int
	var seenB, seenS bool
	for _, p := range parts {
		if p == "" {
			return Rules{}, fmt.Errorf("%w: empty part in %q", ErrInvalidRule, notation)
		}
		counts, err := parseCounts(p[1:])
		if err != nil {
			return Rules{}, fmt.Errorf("%w: %q: %v", ErrInvalidRule, notation, err)
		}
		switch {
		case p[0] == 'B' && !seenB:
			birth, seenB = counts, true
		case p[0] == 'S' && !seenS:
			survive, seenS = counts, true
		default:
			return Rules{}, fmt.Errorf("%w: unexpected part %q in %q", ErrInvalidRule, p, notation)
		}
	}
	r, err := NewRules("", survive, birth)
	if err != nil {
		return Rules{}, err
	}
	r.name = r.String()
	return r, nil
}

func parseCounts(digits string) ([]int, error) {
	counts := make([]int, 0, len(digits))
	for _, d := range digits {
		n, err := strconv.Atoi(string(d))
		if err != nil {
			return nil, fmt.Errorf("bad neighbour count %q", d)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

//LookupRules returns the preset by its name or parses the B/S notation
func LookupRules(nameOrNotation string) (Rules, error) {
	if r, ok := rulePresets[strings.ToLower(strings.TrimSpace(nameOrNotation))]; ok {
		return r, nil
	}
	return ParseRules(nameOrNotation)
}

//RulePresetNames returns the sorted names of the preset rule sets
func RulePresetNames() []string {
	names := make([]string, 0, len(rulePresets))
	for k := range rulePresets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (r Rules) Name() string {
	if r.name == "" {
		return r.String()
	}
	return r.name
}

//Survives reports whether a living cell with n living neighbours stays alive
func (r Rules) Survives(n int) bool {
	return n >= 0 && n <= maxNeighbours && r.survive&(1<<n) != 0
}

//Born reports whether a dead cell with n living neighbours becomes alive
func (r Rules) Born(n int) bool {
	return n >= 0 && n <= maxNeighbours && r.birth&(1<<n) != 0
}

//IsZero reports whether r is the zero value (no counts, no name)
func (r Rules) IsZero() bool {
	return r == Rules{}
}

//String renders the rules in B/S notation
func (r Rules) String() string {
	var b strings.Builder
	b.WriteByte('B')
	writeMask(&b, r.birth)
	b.WriteString("/S")
	writeMask(&b, r.survive)
	return b.String()
}

func writeMask(b *strings.Builder, m uint16) {
	for n := 0; n <= maxNeighbours; n++ {
		if m&(1<<n) != 0 {
			b.WriteByte(byte('0' + n))
		}
	}
}
