package codec

import (
	"sort"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/constraint"
)

// RotationDigits is the length of the rotation header written by Screen.
const RotationDigits = 2

// PadDigits is the length of the pad-count trailer written by ScreenPadded.
const PadDigits = 2

// rotorSalt seeds the keystream of every rotation.
const rotorSalt int64 = 0x4d42494f

// Row selectors by the sign of the strong/weak balance.
const (
	rowStrongFirst = iota // balance < 0
	rowPlain              // balance == 0
	rowWeakFirst          // balance > 0
)

// Rotor is a substitution table keyed by the previous symbol and by the
// balance of strong over weak letters written so far.
//
// The candidates following symbol p are the alphabet in rotation order
// S[p+1], S[p+2], ..., S[p+n] (indices mod n). When radix < n the
// predecessor itself is dropped, so no homopolymer can form, and the
// remaining candidates are reordered by class: strong letters first while
// weak ones lead the balance, weak letters first while strong ones lead.
// Digit v selects the v-th candidate, so the spare candidates are always
// taken from the class in excess and GC content is pulled toward one half
// whatever the alphabet's own strong share. With radix = n every symbol is
// in every row and the plain rotation order is used.
//
// The first symbol of a sequence uses the virtual predecessor n-1 at
// balance 0, i.e. row = S[v].
type Rotor struct {
	alpha  *alphabet.Alphabet
	n      int
	radix  int
	strong []bool
	rows   [3][][]int // [selector][prev] -> symbol by digit
	digit  [3][][]int // [selector][prev][symbol] -> digit, -1 off row
}

// NewRotor builds a Rotor carrying radix-ary digits. radix must lie in
// [2, a.Size()].
func NewRotor(a *alphabet.Alphabet, radix int) (*Rotor, error) {
	if a == nil {
		return nil, Configf("rotor: nil alphabet")
	}
	if radix < 2 || radix > a.Size() {
		return nil, Configf("rotor: radix %d outside [2,%d] for %s", radix, a.Size(), a.Family())
	}
	r := &Rotor{alpha: a, n: a.Size(), radix: radix, strong: make([]bool, a.Size())}
	for i := range r.strong {
		r.strong[i] = a.Symbol(i).Strong
	}
	for sel := range r.rows {
		r.rows[sel] = make([][]int, r.n)
		r.digit[sel] = make([][]int, r.n)
		for p := 0; p < r.n; p++ {
			row := r.buildRow(sel, p)
			inv := make([]int, r.n)
			for i := range inv {
				inv[i] = -1
			}
			for d, s := range row {
				inv[s] = d
			}
			r.rows[sel][p], r.digit[sel][p] = row, inv
		}
	}
	return r, nil
}

func (r *Rotor) buildRow(sel, p int) []int {
	cand := make([]int, 0, r.n)
	for j := 1; j <= r.n; j++ {
		cand = append(cand, (p+j)%r.n)
	}
	if r.radix == r.n {
		return cand
	}
	cand = cand[:r.n-1]
	if sel != rowPlain {
		want := sel == rowStrongFirst
		sort.SliceStable(cand, func(i, j int) bool {
			return r.strong[cand[i]] == want && r.strong[cand[j]] != want
		})
	}
	return cand[:r.radix:r.radix]
}

// cursor is the mapping state after some letters.
type cursor struct {
	prev    int
	balance int
}

func (r *Rotor) start() cursor { return cursor{prev: r.n - 1} }

func selector(balance int) int {
	switch {
	case balance < 0:
		return rowStrongFirst
	case balance > 0:
		return rowWeakFirst
	}
	return rowPlain
}

func (r *Rotor) row(c cursor) []int { return r.rows[selector(c.balance)][c.prev] }

func (r *Rotor) advance(c cursor, s int) cursor {
	c.prev = s
	if r.strong[s] {
		c.balance++
	} else {
		c.balance--
	}
	return c
}

// Radix returns the digit base.
func (r *Rotor) Radix() int { return r.radix }

// Alphabet returns the bound alphabet.
func (r *Rotor) Alphabet() *alphabet.Alphabet { return r.alpha }

// Rotations returns how many rotations the two-digit header can address.
func (r *Rotor) Rotations() int { return r.radix * r.radix }

// NeedsPad reports whether the rows alone cannot steer GC content: every
// symbol is in every row and strong and weak letters are not evenly split.
// Codecs write such rotors with ScreenPadded.
func (r *Rotor) NeedsPad() bool {
	if r.radix < r.n {
		return false
	}
	strong := 0
	for _, s := range r.strong {
		if s {
			strong++
		}
	}
	return 2*strong != r.n
}

// MaxPad returns the longest pad the trailer of ScreenPadded can record.
func (r *Rotor) MaxPad() int { return r.radix*r.radix - 1 }

// Map converts digits in [0, radix) to letters.
//
// Complexity: O(len(digits)).
func (r *Rotor) Map(digits []int) []byte {
	out := make([]byte, len(digits))
	cur := r.start()
	for i, d := range digits {
		s := r.row(cur)[d]
		out[i] = r.alpha.Letter(s)
		cur = r.advance(cur, s)
	}
	return out
}

// Unmap inverts Map. It stops at the first letter that is not in the
// alphabet or not in its row and returns the digits decoded so far together
// with that position; pos is -1 when every letter decoded.
func (r *Rotor) Unmap(letters []byte) (digits []int, pos int) {
	digits = make([]int, 0, len(letters))
	cur := r.start()
	for i, l := range letters {
		s, ok := r.alpha.Index(l)
		if !ok {
			return digits, i
		}
		d := r.digit[selector(cur.balance)][cur.prev][s]
		if d < 0 {
			return digits, i
		}
		digits = append(digits, d)
		cur = r.advance(cur, s)
	}
	return digits, -1
}

// Screen writes body behind a rotation header, trying rotations 0, 1, ...
// until the mapped letters satisfy p. Each rotation scrambles body with its
// own keystream, so a violation is answered by rotating the table rather
// than by altering the payload. limit caps the rotations tried (0 means all).
//
// It returns the accepted letters and the rotation used, or nil, -1 and the
// last violation seen.
func (r *Rotor) Screen(body []int, p constraint.Profile, limit int) ([]byte, int, constraint.Violation) {
	n := r.limit(limit)
	digits := make([]int, RotationDigits+len(body))
	last := constraint.None
	for rot := 0; rot < n; rot++ {
		r.header(digits, body, rot)
		letters := r.Map(digits)
		last = constraint.Check(letters, r.alpha, p)
		if last == constraint.None {
			return letters, rot, last
		}
	}
	return nil, -1, last
}

// ScreenPadded is Screen for rows that cannot steer GC content on their
// own, as when radix equals the alphabet size. After the scrambled body it
// appends t pad letters, each taken from the class that moves GC content
// toward the middle of p's band and never repeating its predecessor, then t
// itself as PadDigits plain digits:
//
//	rotation(2) | scrambled body | pad × t | t(2)
//
// Rotations are tried in order and, within a rotation, t = 0, 1, ...,
// MaxPad. It returns the accepted letters, the rotation and the pad length,
// or nil, -1, -1 and the last violation seen.
//
// Complexity: O(R·(L + T·(L+T))) for R rotations, L body digits and T pads.
func (r *Rotor) ScreenPadded(body []int, p constraint.Profile, limit int) ([]byte, int, int, constraint.Violation) {
	n := r.limit(limit)
	digits := make([]int, RotationDigits+len(body))
	maxPad := r.MaxPad()
	mid := (p.GCMin + p.GCMax) / 2
	buf := make([]byte, 0, len(digits)+maxPad+PadDigits)
	last := constraint.None
	for rot := 0; rot < n; rot++ {
		r.header(digits, body, rot)
		buf = buf[:0]
		cur, strong := r.start(), 0
		for _, d := range digits {
			s := r.row(cur)[d]
			buf = append(buf, r.alpha.Letter(s))
			cur = r.advance(cur, s)
			if r.strong[s] {
				strong++
			}
		}
		for t := 0; t <= maxPad; t++ {
			if t > 0 {
				s := r.pad(cur, 100*float64(strong) < mid*float64(len(buf)))
				buf = append(buf, r.alpha.Letter(s))
				cur = r.advance(cur, s)
				if r.strong[s] {
					strong++
				}
			}
			out := buf
			tc := cur
			for _, d := range [PadDigits]int{t / r.radix, t % r.radix} {
				s := r.row(tc)[d]
				out = append(out, r.alpha.Letter(s))
				tc = r.advance(tc, s)
			}
			last = constraint.Check(out, r.alpha, p)
			if last == constraint.None {
				return append([]byte(nil), out...), rot, t, last
			}
			buf = out[:len(buf)]
		}
	}
	return nil, -1, -1, last
}

// pad picks the first row member of the wanted class that differs from the
// predecessor, falling back to any member that differs.
func (r *Rotor) pad(cur cursor, wantStrong bool) int {
	row := r.row(cur)
	pick := row[0]
	found := false
	for _, s := range row {
		if s == cur.prev {
			continue
		}
		if r.strong[s] == wantStrong {
			return s
		}
		if !found {
			pick, found = s, true
		}
	}
	return pick
}

// Unscreen reverses Screen. On a malformed sequence it returns the body
// digits decoded before the fault and the letter position of the fault;
// pos is -1 on success.
func (r *Rotor) Unscreen(letters []byte) (body []int, pos int) {
	digits, pos := r.Unmap(letters)
	if len(digits) < RotationDigits {
		if pos < 0 {
			pos = len(letters)
		}
		return nil, pos
	}
	return r.unscramble(digits), pos
}

// UnscreenPadded reverses ScreenPadded, dropping the pad and its trailer.
// A pad count that does not fit the sequence is reported at the trailer
// position.
func (r *Rotor) UnscreenPadded(letters []byte) (body []int, pos int) {
	digits, pos := r.Unmap(letters)
	if pos >= 0 {
		if len(digits) < RotationDigits {
			return nil, pos
		}
		return r.unscramble(digits), pos
	}
	if len(digits) < RotationDigits+PadDigits {
		return nil, len(letters)
	}
	trailer := len(digits) - PadDigits
	t := digits[trailer]*r.radix + digits[trailer+1]
	end := trailer - t
	if end < RotationDigits {
		return nil, trailer
	}
	return r.unscramble(digits[:end]), -1
}

func (r *Rotor) limit(limit int) int {
	n := r.Rotations()
	if limit > 0 && limit < n {
		n = limit
	}
	return n
}

// header fills digits with the rotation header and body scrambled by rot.
func (r *Rotor) header(digits, body []int, rot int) {
	digits[0], digits[1] = rot/r.radix, rot%r.radix
	r.scramble(digits[RotationDigits:], body, rot)
}

func (r *Rotor) scramble(dst, src []int, rot int) {
	ks := DeriveRand(rotorSalt, uint64(rot))
	for i, v := range src {
		dst[i] = (v + ks.Intn(r.radix)) % r.radix
	}
}

// unscramble reads the rotation header of digits and returns the body
// digits behind it with the keystream removed.
func (r *Rotor) unscramble(digits []int) []int {
	rot := digits[0]*r.radix + digits[1]
	ks := DeriveRand(rotorSalt, uint64(rot))
	body := make([]int, len(digits)-RotationDigits)
	for i, v := range digits[RotationDigits:] {
		body[i] = ((v-ks.Intn(r.radix))%r.radix + r.radix) % r.radix
	}
	return body
}
