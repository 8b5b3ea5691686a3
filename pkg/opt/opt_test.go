package opt

import (
	"errors"
	"testing"

	"github.com/kr/pretty"
	"github.com/laspa-lang/laspa/pkg/diag"
)

func TestPipeline(t *testing.T) {
	var tests = []struct {
		level Level
		want  string
	}{
		{None, ""},
		{Less, "function(mem2reg,instcombine,reassociate)"},
		{Default, "function(mem2reg,instcombine,reassociate,gvn,simplifycfg,dse,memcpyopt)"},
		{Aggressive, "function(mem2reg,instcombine,reassociate,gvn,simplifycfg,dse,memcpyopt," +
			"loop(loop-rotate),loop-unroll,loop-vectorize,slp-vectorizer)"},
	}

	for _, tt := range tests {
		if got := tt.level.Pipeline(); got != tt.want {
			t.Errorf("%s.Pipeline() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestPassesAreCumulative(t *testing.T) {
	less := Less.Passes()
	def := Default.Passes()

	if diff := pretty.Diff(def[:len(less)], less); len(diff) > 0 {
		t.Errorf("default should start with the less passes: %v", diff)
	}
	if len(None.Passes()) != 0 {
		t.Errorf("none should run no passes, got %v", None.Passes())
	}
}

func TestParseLevel(t *testing.T) {
	for n := 0; n <= 3; n++ {
		l, err := ParseLevel(n)
		if err != nil {
			t.Errorf("ParseLevel(%d): unexpected error: %v", n, err)
		}
		if int(l) != n {
			t.Errorf("ParseLevel(%d) = %d", n, l)
		}
	}

	for _, n := range []int{-1, 4, 255} {
		if _, err := ParseLevel(n); !errors.Is(err, diag.Config) {
			t.Errorf("ParseLevel(%d): got %v, want a config error", n, err)
		}
	}
}

func TestLevelString(t *testing.T) {
	if got := Aggressive.String(); got != "aggressive" {
		t.Errorf("got %q", got)
	}
	if got := Level(7).String(); got != "Level(7)" {
		t.Errorf("got %q", got)
	}
}
