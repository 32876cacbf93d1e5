// Command genvectors regenerates vectors_amd64.s, genvectors.go and
// vectortable.go in the parent irq package: one naked stub, one Go
// forward declaration and one vectorStubs table entry for every vector in
// [firstVector, lastVector]. Run via `go generate ./kernel/irq` whenever
// that range changes.
package main

import (
	"os"
	"strings"
	"text/template"
)

const (
	firstVector = 32
	lastVector  = 255
)

var asmTemplate = template.Must(template.New("asm").Parse(
	`#include "textflag.h"

// vectors_amd64.s is generated by ` + "`go generate ./kernel/irq`" + ` (see
// genvectors.go and internal/genvectors/main.go): one naked entry point
// per vector in [FirstVector, LastVector], each pushing its own vector
// number and falling into stubCommon.
{{range .}}
// func Vector{{.}}()
TEXT ·Vector{{.}}(SB), NOSPLIT, $0
	PUSHQ ${{.}}
	JMP stubCommon(SB)
{{end}}`))

var declTemplate = template.Must(template.New("decl").Parse(
	`package irq

// Vector32..Vector255 are the naked asm entry points vectors_amd64.s
// defines, one per vector in [FirstVector, LastVector]: push the vector
// number and fall into stubCommon. Generated by
// ` + "`go generate ./kernel/irq`" + `; see internal/genvectors/main.go.
{{range .}}func Vector{{.}}()
{{end}}
//go:generate go run ./internal/genvectors
`))

var tableTemplate = template.Must(template.New("table").Parse(
	`package irq

// vectorStubs lists Vector32..Vector255 in vector order so BuildIDT can
// resolve each one's address the same way trap.syscallEntryAddr resolves
// SyscallEntry's, without hand-maintaining 224 reflect.ValueOf calls at
// the call site. Generated alongside genvectors.go.
var vectorStubs = [slotCount]func(){
{{range .}}	Vector{{.}},
{{end}}}
`))

func main() {
	vectors := make([]int, 0, lastVector-firstVector+1)
	for v := firstVector; v <= lastVector; v++ {
		vectors = append(vectors, v)
	}

	render(asmTemplate, vectors, "vectors_amd64.s")
	render(declTemplate, vectors, "genvectors.go")
	render(tableTemplate, vectors, "vectortable.go")
}

func render(t *template.Template, vectors []int, path string) {
	var b strings.Builder
	if err := t.Execute(&b, vectors); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		panic(err)
	}
}
