package docstore

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenReplacesSequences(t *testing.T) {
	in := map[string]any{
		"amenities": []any{"pool", "gym"},
		"name":      "Skyline",
	}

	got := Flatten(in)

	want := map[string]any{
		"amenities": map[string]any{"0": "pool", "1": "gym"},
		"name":      "Skyline",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenScalarsPassThrough(t *testing.T) {
	for _, v := range []any{nil, "x", 3.5, true} {
		assert.Equal(t, v, Flatten(v))
		assert.Equal(t, v, Unflatten(v))
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"flat list", []any{"a", "b", "c"}},
		{"nested arrays", []any{[]any{"A-101", "A-102"}, []any{"A-201"}}},
		{"project", map[string]any{
			"projectName": "Green Acres",
			"towers": []any{
				map[string]any{
					"name":   "T1",
					"layout": []any{[]any{"101", "102"}, []any{"201", "202"}},
				},
			},
			"rera":  map[string]any{"approved": true, "number": "P521000"},
			"price": 7.5e6,
		}},
		{"deep", map[string]any{"a": map[string]any{"b": []any{map[string]any{"c": []any{1.0, 2.0}}}}}},
		{"empty list", map[string]any{"amenities": []any{}}},
		{"empty inner list", []any{[]any{"A-101"}, []any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unflatten(Flatten(tt.in))
			if diff := cmp.Diff(tt.in, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnflattenSparseKeysStayMap(t *testing.T) {
	in := map[string]any{"0": "a", "2": "c"}
	assert.Equal(t, map[string]any{"0": "a", "2": "c"}, Unflatten(in))
}

func TestUnflattenOrdersNumerically(t *testing.T) {
	// lexical order would put "10" before "2"
	letters := []any{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	in := map[string]any{}
	for i, v := range letters {
		in[strconv.Itoa(i)] = v
	}
	assert.Equal(t, letters, Unflatten(in))
}

func TestKeyShapeAmbiguity(t *testing.T) {
	// A genuine map with sequential keys cannot be told apart from a flattened list.
	in := map[string]any{"0": "ground", "1": "first"}
	_, isSlice := Unflatten(Flatten(in)).([]any)
	assert.True(t, isSlice)

	// The tagged form keeps it a map.
	got := UnflattenTagged(FlattenTagged(in))
	assert.Equal(t, in, got)
}

func TestTaggedRoundTripKeepsEmptySlices(t *testing.T) {
	in := map[string]any{
		"images": []any{},
		"floors": map[string]any{"0": "ground"},
		"layout": []any{[]any{"101"}, []any{}},
	}
	got := UnflattenTagged(FlattenTagged(in))
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("tagged round trip mismatch (-want +got):\n%s", diff)
	}
}

type tower struct {
	Name   string     `json:"name"`
	Layout [][]string `json:"layout"`
}

type project struct {
	ProjectName string   `json:"projectName"`
	Towers      []tower  `json:"towers"`
	Amenities   []string `json:"amenities"`
	Price       int64    `json:"price"`
}

func TestCodecsRoundTripStructs(t *testing.T) {
	in := project{
		ProjectName: "Lakeview",
		Towers: []tower{
			{Name: "A", Layout: [][]string{{"A-101", "A-102"}, {"A-201"}}},
		},
		Amenities: []string{"clubhouse"},
		Price:     9007199254740993,
	}

	for name, codec := range map[string]Codec{"key-shape": KeyShapeCodec{}, "tagged": TaggedCodec{}} {
		t.Run(name, func(t *testing.T) {
			data, err := codec.Encode(in)
			require.NoError(t, err)
			assert.NotContains(t, string(data), "[", "stored form must not contain arrays")

			var out project
			require.NoError(t, codec.Decode(data, &out))
			if diff := cmp.Diff(in, out); diff != "" {
				t.Errorf("codec round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKeyShapeCodecKeepsEmptySlices(t *testing.T) {
	in := project{
		ProjectName: "Riverside",
		Towers:      []tower{{Name: "B", Layout: [][]string{{"B-101"}, {}}}},
		Amenities:   []string{},
	}

	data, err := KeyShapeCodec{}.Encode(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"projectName":"Riverside","towers":{"0":{"name":"B","layout":{"0":{"0":"B-101"},"1":[]}}},"amenities":[],"price":0}`, string(data))

	var out project
	require.NoError(t, KeyShapeCodec{}.Decode(data, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("codec round trip mismatch (-want +got):\n%s", diff)
	}

	patch, err := KeyShapeCodec{}.Encode(map[string]any{"amenities": []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amenities":[]}`, string(patch))
}

func TestTaggedDecodeFromJSONNumbers(t *testing.T) {
	raw := []byte(`{"tags":{"$seq":2,"0":"new","1":"hot"}}`)
	var out struct {
		Tags []string `json:"tags"`
	}
	require.NoError(t, TaggedCodec{}.Decode(raw, &out))
	assert.Equal(t, []string{"new", "hot"}, out.Tags)

	var generic any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, map[string]any{"tags": []any{"new", "hot"}}, UnflattenTagged(generic))
}
