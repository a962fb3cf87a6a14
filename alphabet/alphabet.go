package alphabet

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrUnknownFamily is returned for family values or names outside the closed set.
var ErrUnknownFamily = errors.New("alphabet: unknown symbol family")

// Family enumerates the supported symbol families.
type Family int

const (
	// Natural is the canonical A/C/G/T alphabet.
	Natural Family = iota
	// PZ extends Natural with the non-natural P/Z pair.
	PZ
	// BS extends Natural with the non-natural B/S pair.
	BS
	// PZBS extends Natural with both non-natural pairs.
	PZBS
	// M5C extends Natural with 5-methylcytosine.
	M5C
	// M6A extends Natural with N6-methyladenine.
	M6A
	// M5C6A extends Natural with both modified bases.
	M5C6A
)

// Families lists every family in declaration order.
var Families = []Family{Natural, PZ, BS, PZBS, M5C, M6A, M5C6A}

var familyNames = [...]string{
	Natural: "Natural",
	PZ:      "PZ",
	BS:      "BS",
	PZBS:    "PZ+BS",
	M5C:     "5mC",
	M6A:     "6mA",
	M5C6A:   "5mC+6mA",
}

// labels maps presentation strings of the desktop tool onto families.
var labels = map[string]Family{
	"a, t, c, g":       Natural,
	"atcg":             Natural,
	"p, z":             PZ,
	"atcgpz":           PZ,
	"b, s":             BS,
	"atcgbs":           BS,
	"p, z+b, s":        PZBS,
	"a,t,c,g,p,z,b,s":  PZBS,
	"a,t,c,g,5mc,6ma":  M5C6A,
	"a, t, c, g, 5mc":  M5C,
	"a, t, c, g, 6ma":  M6A,
	"natural":          Natural,
	"pzbs":             PZBS,
	"m5c":              M5C,
	"m6a":              M6A,
	"m5c6a":            M5C6A,
	"5mc6ma":           M5C6A,
}

// String returns the canonical family name.
func (f Family) String() string {
	if f < 0 || int(f) >= len(familyNames) {
		return fmt.Sprintf("Family(%d)", int(f))
	}
	return familyNames[f]
}

// Valid reports whether f is one of the declared families.
func (f Family) Valid() bool {
	return f >= Natural && f <= M5C6A
}

// ParseFamily resolves a canonical name or a known presentation label,
// ignoring case and surrounding whitespace.
func ParseFamily(name string) (Family, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for f, n := range familyNames {
		if strings.ToLower(n) == key {
			return Family(f), nil
		}
	}
	if f, ok := labels[key]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

// Symbol is one letter of an alphabet.
type Symbol struct {
	Letter byte
	Name   string
	// Strong marks the G/C-equivalent class.
	Strong bool
}

var (
	symA = Symbol{Letter: 'A', Name: "A"}
	symC = Symbol{Letter: 'C', Name: "C", Strong: true}
	symG = Symbol{Letter: 'G', Name: "G", Strong: true}
	symT = Symbol{Letter: 'T', Name: "T"}
	symP = Symbol{Letter: 'P', Name: "P", Strong: true}
	symZ = Symbol{Letter: 'Z', Name: "Z", Strong: true}
	symB = Symbol{Letter: 'B', Name: "B"}
	symS = Symbol{Letter: 'S', Name: "S"}
	symM = Symbol{Letter: 'M', Name: "5mC", Strong: true}
	symE = Symbol{Letter: 'E', Name: "6mA"}
)

var tables = [...][]Symbol{
	Natural: {symA, symC, symT, symG},
	PZ:      {symA, symP, symC, symT, symZ, symG},
	BS:      {symA, symC, symB, symT, symG, symS},
	PZBS:    {symA, symC, symT, symG, symB, symP, symS, symZ},
	M5C:     {symA, symC, symT, symG, symM},
	M6A:     {symA, symC, symT, symG, symE},
	M5C6A:   {symA, symC, symT, symG, symE, symM},
}

// Alphabet is the resolved, read-only symbol table of a Family.
// It is safe for concurrent use.
type Alphabet struct {
	family  Family
	symbols []Symbol
	index   [256]int16
}

// New resolves f into its Alphabet.
func New(f Family) (*Alphabet, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, int(f))
	}
	a := &Alphabet{family: f, symbols: tables[f]}
	for i := range a.index {
		a.index[i] = -1
	}
	for i, s := range a.symbols {
		a.index[s.Letter] = int16(i)
	}
	return a, nil
}

// Symbols returns a copy of f's ordered symbol table.
func Symbols(f Family) ([]Symbol, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, int(f))
	}
	out := make([]Symbol, len(tables[f]))
	copy(out, tables[f])
	return out, nil
}

// BitsPerSymbol returns floor(log2(size)) for f, or 0 for an unknown family.
func BitsPerSymbol(f Family) int {
	if !f.Valid() {
		return 0
	}
	return bits.Len(uint(len(tables[f]))) - 1
}

// Family returns the family the alphabet was built from.
func (a *Alphabet) Family() Family { return a.family }

// Size returns the number of symbols.
func (a *Alphabet) Size() int { return len(a.symbols) }

// BitsPerSymbol returns the fixed bit width one symbol carries.
func (a *Alphabet) BitsPerSymbol() int { return BitsPerSymbol(a.family) }

// Symbols returns a copy of the ordered symbol table.
func (a *Alphabet) Symbols() []Symbol {
	out := make([]Symbol, len(a.symbols))
	copy(out, a.symbols)
	return out
}

// Symbol returns the i-th symbol. It panics if i is out of range.
func (a *Alphabet) Symbol(i int) Symbol { return a.symbols[i] }

// Letter returns the letter of the i-th symbol.
func (a *Alphabet) Letter(i int) byte { return a.symbols[i].Letter }

// Index returns the position of letter, or false if it is not in the alphabet.
func (a *Alphabet) Index(letter byte) (int, bool) {
	i := a.index[letter]
	return int(i), i >= 0
}

// Contains reports whether letter belongs to the alphabet.
func (a *Alphabet) Contains(letter byte) bool { return a.index[letter] >= 0 }

// IsStrong reports whether letter is G/C-equivalent. Unknown letters are weak.
func (a *Alphabet) IsStrong(letter byte) bool {
	i := a.index[letter]
	return i >= 0 && a.symbols[i].Strong
}

// Letters returns the concatenated symbol letters in table order.
func (a *Alphabet) Letters() string {
	var sb strings.Builder
	for _, s := range a.symbols {
		sb.WriteByte(s.Letter)
	}
	return sb.String()
}
