package tsd

import (
	"slices"
	"testing"
)

func TestParseChunk(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  []string
	}{
		{
			name:  "two items",
			chunk: "- jquery/jquery.d.ts\n- jquery/jqueryui.d.ts\n",
			want:  []string{"jquery/jquery.d.ts", "jquery/jqueryui.d.ts"},
		},
		{
			name:  "mixed with noise",
			chunk: ">> running install\n- node/node.d.ts\nbundle updated\n- express/express.d.ts\n",
			want:  []string{"node/node.d.ts", "express/express.d.ts"},
		},
		{
			name:  "case insensitive suffix",
			chunk: "- lodash/LODASH.D.TS\n",
			want:  []string{"lodash/LODASH.D.TS"},
		},
		{
			name:  "crlf line endings",
			chunk: "- mocha/mocha.d.ts\r\n",
			want:  []string{"mocha/mocha.d.ts"},
		},
		{
			name:  "nested path",
			chunk: "   - angularjs/sub/angular-route.d.ts",
			want:  []string{"angularjs/sub/angular-route.d.ts"},
		},
		{
			name:  "backslash separator",
			chunk: "- jquery\\jquery.d.ts\r\n- node\\node.d.ts\n",
			want:  []string{"jquery\\jquery.d.ts", "node\\node.d.ts"},
		},
		{name: "no separator", chunk: "- jquery.d.ts\n"},
		{name: "not a definition", chunk: "- jquery/jquery.js\n"},
		{name: "empty", chunk: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseChunk(tt.chunk)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
