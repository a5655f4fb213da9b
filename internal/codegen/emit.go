package codegen

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/funvibe/nodevm/internal/ir"
)

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by nodevm emit. DO NOT EDIT.

package {{.Package}}
{{range .Funcs}}
// {{.Ident}} computes {{printf "%q" .Name}}.
func {{.Ident}}({{.Params}}) {{.Results}} {
{{.Body}}}
{{end}}`))

type emitFunc struct {
	Name    string
	Ident   string
	Params  string
	Results string
	Body    string
}

// EmitGo renders fns as a Go source file in package pkg.
// Imports are resolved and the result is gofmt-formatted.
func EmitGo(pkg string, fns ...*ir.Func) ([]byte, error) {
	data := struct {
		Package string
		Funcs   []emitFunc
	}{Package: pkg}

	seen := make(map[string]string)
	for _, f := range fns {
		ident := GoIdent(f.Name)
		if prev, ok := seen[ident]; ok {
			return nil, fmt.Errorf("%q and %q both map to %s", prev, f.Name, ident)
		}
		seen[ident] = f.Name
		data.Funcs = append(data.Funcs, emitFunction(ident, f))
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	out, err := imports.Process(pkg+".go", buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w\n%s", err, buf.Bytes())
	}
	return out, nil
}

func emitFunction(ident string, f *ir.Func) emitFunc {
	used := make([]bool, len(f.Instrs))
	for _, in := range f.Instrs {
		for _, a := range in.Args {
			used[a.ID()] = true
		}
	}
	for _, r := range f.Results {
		used[r.ID()] = true
	}

	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = name(p)
	}

	var body strings.Builder
	for i, in := range f.Instrs {
		if in.Op == ir.OpParam {
			continue
		}
		v := f.Value(i)
		emitInstr(&body, v, in)
		if !used[i] {
			fmt.Fprintf(&body, "\t_ = %s\n", name(v))
		}
	}

	results := make([]string, len(f.Results))
	names := make([]string, len(f.Results))
	for i, r := range f.Results {
		results[i] = "float32"
		names[i] = name(r)
	}
	fmt.Fprintf(&body, "\treturn %s\n", strings.Join(names, ", "))

	res := strings.Join(results, ", ")
	if len(results) > 1 {
		res = "(" + res + ")"
	}
	sig := ""
	if len(params) > 0 {
		sig = strings.Join(params, ", ") + " float32"
	}
	return emitFunc{Name: f.Name, Ident: ident, Params: sig, Results: res, Body: body.String()}
}

func emitInstr(w *strings.Builder, v ir.Value, in ir.Instr) {
	d := name(v)
	arg := func(i int) string { return name(in.Args[i]) }

	switch in.Op {
	case ir.OpConst:
		fmt.Fprintf(w, "\t%s := %s\n", d, goFloat(in.Const))
	case ir.OpFAdd:
		fmt.Fprintf(w, "\t%s := %s + %s\n", d, arg(0), arg(1))
	case ir.OpFSub:
		fmt.Fprintf(w, "\t%s := %s - %s\n", d, arg(0), arg(1))
	case ir.OpFMul:
		fmt.Fprintf(w, "\t%s := %s * %s\n", d, arg(0), arg(1))
	case ir.OpFDiv:
		fmt.Fprintf(w, "\t%s := %s / %s\n", d, arg(0), arg(1))
	case ir.OpFNeg:
		fmt.Fprintf(w, "\t%s := -%s\n", d, arg(0))
	case ir.OpFMin:
		fmt.Fprintf(w, "\t%s := %s\n\tif %s < %s {\n\t\t%s = %s\n\t}\n", d, arg(1), arg(0), arg(1), d, arg(0))
	case ir.OpFMax:
		fmt.Fprintf(w, "\t%s := %s\n\tif %s < %s {\n\t\t%s = %s\n\t}\n", d, arg(0), arg(0), arg(1), d, arg(1))
	case ir.OpFCmpEQ:
		fmt.Fprintf(w, "\t%s := %s == %s\n", d, arg(0), arg(1))
	case ir.OpFCmpLT:
		fmt.Fprintf(w, "\t%s := %s < %s\n", d, arg(0), arg(1))
	case ir.OpSelect:
		fmt.Fprintf(w, "\t%s := %s\n\tif %s {\n\t\t%s = %s\n\t}\n", d, arg(2), arg(0), d, arg(1))
	}
}

func name(v ir.Value) string { return "v" + strconv.Itoa(v.ID()) }

func goFloat(c float32) string {
	if math.IsInf(float64(c), 0) || math.IsNaN(float64(c)) {
		return fmt.Sprintf("math.Float32frombits(0x%08x)", math.Float32bits(c))
	}
	return "float32(" + strconv.FormatFloat(float64(c), 'g', -1, 32) + ")"
}

// GoIdent turns a function name into an exported Go identifier.
func GoIdent(s string) string {
	var sb strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			upper = true
			continue
		}
		if sb.Len() == 0 && unicode.IsDigit(r) {
			sb.WriteString("F")
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return "F"
	}
	return sb.String()
}
