package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/alecthomas/repr"
	"github.com/laspa-lang/laspa/pkg/ast"
	"github.com/laspa-lang/laspa/pkg/gen"
	llvmgen "github.com/laspa-lang/laspa/pkg/gen/llvm"
	"github.com/laspa-lang/laspa/pkg/interp"
	"github.com/laspa-lang/laspa/pkg/lexer"
	"github.com/laspa-lang/laspa/pkg/parser"
)

func main() {
	code := `
fn sum (x y)
    return + x y
end

// let z 3
let x 0
while < x 10
    := x + x 1
end

print sum (x 2)
sum (10 2)
`
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err.Error())
	}

	m := ast.NewModule(filepath.Join(cwd, "main.laspa"), code)

	lexer.Lex(m)
	if err := parser.Parse(m); err != nil {
		log.Fatal(err)
	}
	repr.Println(m.Nodes, repr.Indent("  "))
	fmt.Println(ast.Format(m.Nodes))

	result, err := interp.Run(m, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("interpreter:", result)

	gennedLLVM, err := gen.LLVM(m, llvmgen.Options{Verify: true})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(gennedLLVM)
	// fmt.Println(gen.Runtime())
}
