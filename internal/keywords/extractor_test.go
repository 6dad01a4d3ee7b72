package keywords

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "hashtags and words",
			content: "New #DOGE coin launching soon",
			want:    []string{"coin", "doge", "launching", "soon"},
		},
		{
			name:    "stopwords and short words dropped",
			content: "this is the new to go",
			want:    nil,
		},
		{
			name:    "duplicates collapse case-insensitively",
			content: "Pepe PEPE #pepe pepe",
			want:    []string{"pepe"},
		},
		{
			name:    "empty content",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	content := "DogeMoon #moon rocket launch soon crypto gains"
	first := Extract(content)
	for i := 0; i < 5; i++ {
		if got := Extract(content); !reflect.DeepEqual(got, first) {
			t.Fatalf("Extract not deterministic: %v != %v", got, first)
		}
	}
}
