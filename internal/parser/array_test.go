package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadArray(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []float64
		next string // line left for the assembler, "" when input is exhausted
	}{
		{
			name: "in order with a gap",
			body: "0: 1.0 2.0 3.0\n5: 9.0\nB: 1.0\n",
			want: []float64{1, 2, 3, 0, 0, 9},
			next: "B: 1.0",
		},
		{
			name: "out of order",
			body: "5: 9.0\n0: 1.0 2.0 3.0\nB: 1.0\n",
			want: []float64{1, 2, 3, 0, 0, 9},
			next: "B: 1.0",
		},
		{
			name: "overlapping fragments keep the last write",
			body: "0: 1.0 2.0 3.0\n1: 7.0\n",
			want: []float64{1, 7, 3},
		},
		{
			name: "no fragments",
			body: "D:\nE: 0.25\n",
			want: []float64{},
			next: "D:",
		},
		{
			name: "padded MED-PC layout",
			body: "     0:        1.000        2.000        3.000        4.000        5.000\r\n     5:        6.000\r\n",
			want: []float64{1, 2, 3, 4, 5, 6},
		},
		{
			name: "ends at separator",
			body: "0: 4.0\n\nStart Date: 01/30/19\n",
			want: []float64{4},
			next: "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := newLineReader(strings.NewReader(tt.body))
			got, err := readArray(lr)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.want))

			text, ok, err := lr.next()
			require.NoError(t, err)
			switch tt.next {
			case "":
				assert.False(t, ok)
			case "\n":
				require.True(t, ok)
				assert.Empty(t, text)
			default:
				require.True(t, ok)
				assert.Equal(t, tt.next, text)
			}
		})
	}
}

func TestReadArray_LargeArrayIsNotTruncated(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20000; i += 5 {
		fmt.Fprintf(&sb, "%6d: 1.0 1.0 1.0 1.0 1.0\n", i)
	}

	got, err := readArray(newLineReader(strings.NewReader(sb.String())))
	require.NoError(t, err)
	assert.Len(t, got, 20000)
	assert.Equal(t, 1.0, got[19999])
}

func TestReadArray_MalformedFragment(t *testing.T) {
	lr := newLineReader(strings.NewReader("0: 1.0 2.0\n2: 3.0 x\n"))
	got, err := readArray(lr)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrMalformedArrayFragment))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "2: 3.0 x", pe.Text)
}

func TestArrayBuffer_EmptyFragmentExtends(t *testing.T) {
	var buf arrayBuffer
	buf.writeAt(0, []float64{1})
	buf.writeAt(3, nil)
	assert.Equal(t, []float64{1, 0, 0}, buf.result())
}

func TestReadArray_IndexPastMaximumLength(t *testing.T) {
	tests := []string{
		"9223372036854775807: 1.0 2.0",
		"99999999999999999999: 1.0",
		"100000000000: 1.0",
		fmt.Sprintf("%d: 1.0 2.0", MaxArrayLength-1),
	}

	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			got, err := readArray(newLineReader(strings.NewReader("0: 1.0\n" + line + "\n")))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrMalformedArrayFragment))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, 2, pe.Line)
			assert.Equal(t, line, pe.Text)
		})
	}
}
