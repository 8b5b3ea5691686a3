// Package opt describes the optimization levels the native backend accepts
// and the LLVM pass pipeline each of them runs.
package opt

import (
	"fmt"
	"strings"

	"github.com/laspa-lang/laspa/pkg/diag"
)

type Level int

const (
	None Level = iota
	Less
	Default
	Aggressive
)

var levelNames = [...]string{"none", "less", "default", "aggressive"}

func (l Level) String() string {
	if l.Valid() {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

func (l Level) Valid() bool {
	return l >= None && l <= Aggressive
}

// ParseLevel checks a level given on the command line or in a config file.
func ParseLevel(n int) (Level, error) {
	l := Level(n)
	if !l.Valid() {
		return None, diag.Errorf(diag.Config, "Optimization level must be between 0 and 3, got %d.", n)
	}
	return l, nil
}

var (
	lessPasses       = []string{"mem2reg", "instcombine", "reassociate"}
	defaultPasses    = []string{"gvn", "simplifycfg", "dse", "memcpyopt"}
	aggressivePasses = []string{"loop(loop-rotate)", "loop-unroll", "loop-vectorize", "slp-vectorizer"}
)

// Passes returns the function passes run at this level, in order.
func (l Level) Passes() []string {
	var passes []string
	if l >= Less {
		passes = append(passes, lessPasses...)
	}
	if l >= Default {
		passes = append(passes, defaultPasses...)
	}
	if l >= Aggressive {
		passes = append(passes, aggressivePasses...)
	}
	return passes
}

// Pipeline renders the level as a new pass manager pipeline, e.g.
// `function(mem2reg,instcombine,reassociate)`. Level None yields "".
func (l Level) Pipeline() string {
	passes := l.Passes()
	if len(passes) == 0 {
		return ""
	}
	return "function(" + strings.Join(passes, ",") + ")"
}
