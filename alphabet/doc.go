// Package alphabet defines the symbol families that mbio can write payloads in:
// natural nucleotides, the non-natural P/Z and B/S pairs, and the 5mC / 6mA
// modified bases.
//
// 🚀 What is an Alphabet?
//
//	A Family is a closed enumeration of letter sets. Each family resolves to an
//	Alphabet: an ordered, immutable table of Symbols with O(1) letter lookup.
//	Every Symbol carries its letter, a display name and whether it belongs to
//	the G/C-equivalent ("strong") class used for GC-content accounting.
//
// ✨ Families:
//
//	Natural   A C T G               4 symbols, 2 bits/symbol
//	PZ        A P C T Z G           6 symbols, 2 bits/symbol
//	BS        A C B T G S           6 symbols, 2 bits/symbol
//	PZ+BS     A C T G B P S Z       8 symbols, 3 bits/symbol
//	5mC       A C T G M             5 symbols, 2 bits/symbol
//	6mA       A C T G E             5 symbols, 2 bits/symbol
//	5mC+6mA   A C T G E M           6 symbols, 2 bits/symbol
//
//	M stands for 5-methylcytosine and E for N6-methyladenine. Strong symbols
//	are G, C, M, P and Z.
//
// Ordering
//
//	Symbol order is significant: codecs index rotating substitution tables by
//	position. Natural, PZ+BS and 5mC+6mA alternate weak and strong letters.
//	PZ (4 strong of 6) and BS (2 strong of 6) cannot be balanced by order,
//	so codec.Rotor steers their GC content from the running balance.
//
// ⚙️ Usage:
//
//	a, err := alphabet.New(alphabet.PZBS)
//	if err != nil { ... }
//	fmt.Println(a.Size(), a.BitsPerSymbol()) // 8 3
//	i, ok := a.Index('P')
//
// Complexity:
//
//   - New: O(n) for n symbols, table lookups O(1).
package alphabet
