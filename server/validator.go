package server

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/aep/videolib/api"
)

const (
	schemaCreate = "create"
	schemaUpdate = "update"
)

// unknown fields are accepted and dropped when decoding
var schemas = map[string]string{
	schemaCreate: `{
	title!: string & =~"\\S"
	tags?: [...string]
	...
}`,
	schemaUpdate: `{
	title?: string & =~"\\S"
	tags?: [...string]
	...
}`,
}

// validator checks request bodies against cue schemas.
// cue values are not safe for concurrent use.
type validator struct {
	m       sync.Mutex
	cctx    *cue.Context
	schemas map[string]cue.Value
}

func newValidator() (*validator, error) {
	v := &validator{
		cctx:    cuecontext.New(),
		schemas: make(map[string]cue.Value, len(schemas)),
	}
	for name, src := range schemas {
		schema := v.cctx.CompileString(src, cue.Filename(name+".cue"))
		if schema.Err() != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, schema.Err())
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// validate returns one FieldError per violation, or nil if raw matches the schema.
func (v *validator) validate(name string, raw []byte) []api.FieldError {
	schema, ok := v.schemas[name]
	if !ok {
		return []api.FieldError{{Message: "no schema " + name}}
	}

	expr, err := cuejson.Extract("body", raw)
	if err != nil {
		return []api.FieldError{{Message: "body is not valid JSON"}}
	}

	v.m.Lock()
	defer v.m.Unlock()

	val := v.cctx.BuildExpr(expr)
	if val.Err() != nil {
		return fieldErrors(val.Err())
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func fieldErrors(err error) []api.FieldError {
	var out []api.FieldError
	seen := map[string]bool{}
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		fe := api.FieldError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		}
		if seen[fe.Field+"\xff"+fe.Message] {
			continue
		}
		seen[fe.Field+"\xff"+fe.Message] = true
		out = append(out, fe)
	}
	if len(out) == 0 {
		out = append(out, api.FieldError{Message: err.Error()})
	}
	return out
}
