package format

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaVal  cue.Value
	schemaErr  error
)

func descriptionSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("format: schema: %w", err)
			return
		}
		schemaVal = v.LookupPath(cue.ParsePath("#Description"))
		schemaErr = schemaVal.Err()
	})
	return schemaCtx, schemaVal, schemaErr
}

// Validate checks a description against the format schema: known top-level
// keys only, string rule values or one-level conditional tables, and
// well-formed type and key names. It does not resolve group references;
// Load reports unknown groups.
func Validate(data []byte, syntax Syntax) error {
	raw, err := decode(data, syntax)
	if err != nil {
		return err
	}
	ctx, schema, err := descriptionSchema()
	if err != nil {
		return err
	}
	// The cue context is not safe for concurrent use.
	validateMu.Lock()
	defer validateMu.Unlock()

	v := ctx.Encode(raw)
	if err := v.Err(); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("format: invalid description: %w", err)
	}
	return nil
}

var validateMu sync.Mutex
