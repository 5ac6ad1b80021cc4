package parser

import "fmt"

// MaxArrayLength caps the reconstructed length of one array. MED-PC arrays
// are far smaller; a fragment reaching past it is rejected rather than
// allocated.
const MaxArrayLength = 1 << 24

// arrayBuffer is a dense, growable array addressed by fragment index
type arrayBuffer struct {
	values []float64
	extent int // highest index+count written so far
}

// writeAt stores values starting at index, overwriting earlier values
func (b *arrayBuffer) writeAt(index int, values []float64) {
	end := index + len(values)
	if end > len(b.values) {
		grown := make([]float64, end, max(end, 2*len(b.values)))
		copy(grown, b.values)
		b.values = grown
	}
	copy(b.values[index:end], values)
	if end > b.extent {
		b.extent = end
	}
}

// result returns the logical array: everything up to the furthest write
func (b *arrayBuffer) result() []float64 {
	out := make([]float64, b.extent)
	copy(out, b.values)
	return out
}

// readArray consumes the fragment lines following an array declaration.
// The first line that is not a fragment is pushed back onto lr.
// An array with no fragments is returned as a zero-length slice.
func readArray(lr *lineReader) ([]float64, error) {
	var buf arrayBuffer
	for {
		text, ok, err := lr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		line, matched := Classify(text)
		if !matched || line.Kind != LineArrayFragment {
			lr.unread(text)
			break
		}

		if line.Index < 0 || line.Index > MaxArrayLength-len(line.Fields) {
			return nil, &ParseError{
				Kind: KindMalformedArrayFragment,
				Line: lr.lineNumber(),
				Text: normalizeLine(text),
				Err:  fmt.Errorf("fragment ends past the maximum array length %d", MaxArrayLength),
			}
		}

		values := make([]float64, len(line.Fields))
		for i, field := range line.Fields {
			v, err := parseNumber(field)
			if err != nil {
				return nil, &ParseError{
					Kind: KindMalformedArrayFragment,
					Line: lr.lineNumber(),
					Text: normalizeLine(text),
					Err:  fmt.Errorf("token %d %q is not a number", i+1, field),
				}
			}
			values[i] = v
		}
		buf.writeAt(line.Index, values)
	}
	return buf.result(), nil
}
