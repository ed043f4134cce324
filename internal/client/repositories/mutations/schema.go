package mutations

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/mkuznecovs/notesync/internal/client/models"
	"github.com/mkuznecovs/notesync/internal/common"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[models.Kind]string{
	models.KindCreateNote: "schemas/create_note.json",
	models.KindUpdateNote: "schemas/update_note.json",
	models.KindDeleteNote: "schemas/delete_note.json",
}

var payloadSchemas = mustCompileSchemas()

func mustCompileSchemas() map[models.Kind]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiled := make(map[models.Kind]*jsonschema.Schema, len(schemaFiles))
	for kind, name := range schemaFiles {
		raw, err := schemaFS.ReadFile(name)
		if err != nil {
			panic(fmt.Sprintf("read payload schema %s: %v", name, err))
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			panic(fmt.Sprintf("parse payload schema %s: %v", name, err))
		}
		if err := compiler.AddResource(name, doc); err != nil {
			panic(fmt.Sprintf("add payload schema %s: %v", name, err))
		}
		sch, err := compiler.Compile(name)
		if err != nil {
			panic(fmt.Sprintf("compile payload schema %s: %v", name, err))
		}
		compiled[kind] = sch
	}
	return compiled
}

// validatePayload checks the serialized payload against the schema for kind.
func validatePayload(kind models.Kind, payload []byte) error {
	sch, ok := payloadSchemas[kind]
	if !ok {
		return fmt.Errorf("%w: unknown mutation kind %q", common.ErrValidation, kind)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}
