// Package fasta reads and writes sequence sets as FASTA text.
//
// Headers carry the sequence ID and a family tag:
//
//	>fountain-3f1c… family=PZ+BS
//
// Sequence lines are upper-cased on read and may be wrapped. Paths ending
// in .gz, or starting with the gzip magic, are transparently compressed;
// "-" selects stdin or stdout.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/sequence"
)

// ErrFormat reports malformed FASTA input.
var ErrFormat = errors.New("fasta: malformed input")

const familyTag = "family="

// Read parses every record of r. The family is taken from the header tags
// when present, else fallback; conflicting tags are an error.
func Read(r io.Reader, fallback alphabet.Family) (sequence.Set, error) {
	br := bufio.NewReader(r)
	var (
		seqs   []sequence.Sequence
		cur    *sequence.Sequence
		family = fallback
		tagged bool
		line   int
	)
	for {
		raw, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return sequence.Set{}, err
		}
		eof := err == io.EOF
		line++
		raw = bytes.TrimRight(raw, "\r\n")
		switch {
		case len(raw) == 0 || raw[0] == ';':
		case raw[0] == '>':
			fields := strings.Fields(string(raw[1:]))
			if len(fields) == 0 {
				return sequence.Set{}, fmt.Errorf("%w: line %d: empty header", ErrFormat, line)
			}
			for _, f := range fields[1:] {
				name, ok := strings.CutPrefix(f, familyTag)
				if !ok {
					continue
				}
				fam, err := alphabet.ParseFamily(name)
				if err != nil {
					return sequence.Set{}, fmt.Errorf("%w: line %d: %w", ErrFormat, line, err)
				}
				if tagged && fam != family {
					return sequence.Set{}, fmt.Errorf("%w: line %d: family %s after %s", ErrFormat, line, fam, family)
				}
				family, tagged = fam, true
			}
			seqs = append(seqs, sequence.Sequence{ID: fields[0], Symbols: []byte{}})
			cur = &seqs[len(seqs)-1]
		default:
			if cur == nil {
				return sequence.Set{}, fmt.Errorf("%w: line %d: sequence before header", ErrFormat, line)
			}
			cur.Symbols = append(cur.Symbols, bytes.ToUpper(bytes.TrimSpace(raw))...)
		}
		if eof {
			break
		}
	}
	return sequence.Set{Family: family, Sequences: seqs}, nil
}

// Write emits set, wrapping sequence lines at width symbols (0 = no wrap).
func Write(w io.Writer, set sequence.Set, width int) error {
	bw := bufio.NewWriter(w)
	for _, s := range set.Sequences {
		if _, err := fmt.Fprintf(bw, ">%s %s%s\n", s.ID, familyTag, set.Family); err != nil {
			return err
		}
		body := s.Symbols
		wrap := width
		if wrap <= 0 {
			wrap = max(len(body), 1)
		}
		for len(body) > 0 {
			n := min(wrap, len(body))
			if _, err := bw.Write(body[:n]); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
			body = body[n:]
		}
	}
	return bw.Flush()
}

type multiCloser struct {
	io.Reader
	io.Writer
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open opens path for reading, detecting gzip by magic number or suffix.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var sig [2]byte
	n, _ := io.ReadFull(fh, sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		_ = fh.Close()
		return nil, err
	}
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &multiCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}

// Create opens path for writing, gzip-compressed when it ends in .gz.
func Create(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gw := gzip.NewWriter(fh)
		return &multiCloser{Writer: gw, closers: []io.Closer{gw, fh}}, nil
	}
	return fh, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// ReadFile reads a FASTA file.
func ReadFile(path string, fallback alphabet.Family) (sequence.Set, error) {
	rc, err := Open(path)
	if err != nil {
		return sequence.Set{}, err
	}
	defer rc.Close()
	return Read(rc, fallback)
}

// WriteFile writes set to path.
func WriteFile(path string, set sequence.Set, width int) (err error) {
	wc, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Write(wc, set, width)
}
