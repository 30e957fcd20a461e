package output

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// SourceMap is a version 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// FinalizeOptions controls Finalize.
type FinalizeOptions struct {
	// File is the name of the generated file recorded in the map.
	File       string
	SourceRoot string
	// Source is the original text; it is embedded when IncludeSources is
	// set.
	Source         string
	IncludeSources bool
}

// Output is the finished result of a compilation.
type Output struct {
	Code      string
	SourceMap *SourceMap // nil for plain buffers
}

// MapJSON encodes the source map, or returns nil when there is none.
func (o *Output) MapJSON() ([]byte, error) {
	if o.SourceMap == nil {
		return nil, nil
	}
	data, err := json.Marshal(o.SourceMap)
	if err != nil {
		return nil, fmt.Errorf("output: encode source map: %w", err)
	}
	return data, nil
}

// Finalize renders the buffer. Mapped buffers also produce a source map.
func Finalize(buf Buffer, opts FinalizeOptions) (*Output, error) {
	out := &Output{Code: buf.String()}
	m, ok := buf.(*Mapped)
	if !ok {
		return out, nil
	}

	sm := &SourceMap{
		Version:    3,
		File:       opts.File,
		SourceRoot: opts.SourceRoot,
		Sources:    []string{m.file},
		Names:      []string{},
	}
	if opts.IncludeSources {
		sm.SourcesContent = []string{opts.Source}
	}

	var (
		mappings strings.Builder
		names    = make(map[string]int)
		genCol   int
		// Previous values for relative encoding. The generated column
		// resets on every line; the others run through the whole map.
		prevGenCol, prevLine, prevCol, prevName int
		firstOnLine                             = true
	)
	m.each(func(f *fragment) {
		if f.text == "" {
			return
		}
		if f.hasPos && len(f.text) > f.lead {
			col := genCol + utf16Len(f.text[:f.lead])
			if !firstOnLine {
				mappings.WriteByte(',')
			}
			writeVLQ(&mappings, col-prevGenCol)
			writeVLQ(&mappings, 0) // single source
			line := f.pos.Line - 1
			writeVLQ(&mappings, line-prevLine)
			writeVLQ(&mappings, f.pos.Column-prevCol)
			if f.name != "" {
				idx, seen := names[f.name]
				if !seen {
					idx = len(sm.Names)
					names[f.name] = idx
					sm.Names = append(sm.Names, f.name)
				}
				writeVLQ(&mappings, idx-prevName)
				prevName = idx
			}
			prevGenCol, prevLine, prevCol = col, line, f.pos.Column
			firstOnLine = false
		}
		// Advance the generated position over the fragment.
		text := f.text
		for {
			i := strings.IndexByte(text, '\n')
			if i < 0 {
				genCol += utf16Len(text)
				break
			}
			mappings.WriteByte(';')
			genCol, prevGenCol = 0, 0
			firstOnLine = true
			text = text[i+1:]
		}
	})
	sm.Mappings = mappings.String()
	out.SourceMap = sm
	return out, nil
}

// utf16Len counts the UTF-16 code units of s; source map columns are
// measured in them.
func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func writeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		b.WriteByte(base64Digits[digit])
		if u == 0 {
			return
		}
	}
}

// Segment is one decoded mapping with absolute values.
type Segment struct {
	GenLine, GenColumn int
	Source             int
	Line, Column       int
	Name               int // -1 when absent
}

// DecodeMappings expands a mappings string into absolute segments.
func DecodeMappings(mappings string) ([]Segment, error) {
	var (
		out                  []Segment
		src, line, col, name int
		genLine              int
	)
	for _, group := range strings.Split(mappings, ";") {
		genCol := 0
		if group != "" {
			for _, seg := range strings.Split(group, ",") {
				fields, err := decodeVLQ(seg)
				if err != nil {
					return nil, err
				}
				if len(fields) != 1 && len(fields) != 4 && len(fields) != 5 {
					return nil, fmt.Errorf("output: segment %q has %d fields", seg, len(fields))
				}
				genCol += fields[0]
				s := Segment{GenLine: genLine, GenColumn: genCol, Source: -1, Name: -1}
				if len(fields) >= 4 {
					src += fields[1]
					line += fields[2]
					col += fields[3]
					s.Source, s.Line, s.Column = src, line, col
				}
				if len(fields) == 5 {
					name += fields[4]
					s.Name = name
				}
				out = append(out, s)
			}
		}
		genLine++
	}
	return out, nil
}

func decodeVLQ(s string) ([]int, error) {
	var out []int
	shift, acc := 0, 0
	for i := 0; i < len(s); i++ {
		digit := strings.IndexByte(base64Digits, s[i])
		if digit < 0 {
			return nil, fmt.Errorf("output: invalid base64 digit %q", s[i])
		}
		acc += (digit & 31) << shift
		if digit&32 != 0 {
			shift += 5
			continue
		}
		v := acc >> 1
		if acc&1 == 1 {
			v = -v
		}
		out = append(out, v)
		shift, acc = 0, 0
	}
	if shift != 0 {
		return nil, fmt.Errorf("output: truncated segment %q", s)
	}
	return out, nil
}
