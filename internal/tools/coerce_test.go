package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		field   Field
		in      any
		want    any
		wantErr bool
	}{
		{name: "string trimmed", field: Field{Type: FieldString}, in: "  Paris ", want: "Paris"},
		{name: "blank string is absent", field: Field{Type: FieldString}, in: "  ", want: nil},
		{name: "number as string", field: Field{Type: FieldString}, in: float64(123), want: "123"},
		{name: "json number as string", field: Field{Type: FieldString}, in: json.Number("98765"), want: "98765"},
		{name: "bool is not a string", field: Field{Type: FieldString}, in: true, wantErr: true},
		{name: "whole float", field: Field{Type: FieldNumber}, in: float64(2), want: int64(2)},
		{name: "digit string", field: Field{Type: FieldNumber}, in: " 3 ", want: int64(3)},
		{name: "zero", field: Field{Type: FieldNumber}, in: "0", want: int64(0)},
		{name: "int", field: Field{Type: FieldNumber}, in: 4, want: int64(4)},
		{name: "json number", field: Field{Type: FieldNumber}, in: json.Number("5"), want: int64(5)},
		{name: "json whole decimal", field: Field{Type: FieldNumber}, in: json.Number("2.0"), want: int64(2)},
		{name: "json fraction", field: Field{Type: FieldNumber}, in: json.Number("1.5"), wantErr: true},
		{name: "above int32", field: Field{Type: FieldNumber}, in: json.Number("3000000000"), wantErr: true},
		{name: "empty numeric string is absent", field: Field{Type: FieldNumber}, in: "", want: nil},
		{name: "fraction", field: Field{Type: FieldNumber}, in: 2.5, wantErr: true},
		{name: "negative", field: Field{Type: FieldNumber}, in: float64(-1), wantErr: true},
		{name: "negative int", field: Field{Type: FieldNumber}, in: -1, wantErr: true},
		{name: "signed string", field: Field{Type: FieldNumber}, in: "+2", wantErr: true},
		{name: "word", field: Field{Type: FieldNumber}, in: "two", wantErr: true},
		{name: "date", field: Field{Type: FieldDate}, in: "2026-12-24", want: "2026-12-24"},
		{name: "bad date", field: Field{Type: FieldDate}, in: "2026-13-01", wantErr: true},
		{name: "date wrong layout", field: Field{Type: FieldDate}, in: "24/12/2026", wantErr: true},
		{name: "nil", field: Field{Type: FieldNumber}, in: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.field.coerce(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceDropsUnknownKeys(t *testing.T) {
	t.Parallel()

	out, err := coerce(searchFields(), map[string]any{"location": "Rome", "sneaky": "x"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"location": "Rome"}, out)
}
