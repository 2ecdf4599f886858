package extract

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ContractVersion identifies the current set of output contracts. It is part
// of every cache fingerprint; bump it whenever a schema under schemas/ changes.
const ContractVersion = "cmdsaw-contract/1"

const contractBaseURL = "https://cmdsaw.local/contract/"

//go:embed schemas/*.json
var schemaFS embed.FS

// Contract is a named JSON Schema an extraction result must satisfy.
type Contract struct {
	name   string
	raw    []byte
	schema *jsonschema.Schema
}

// Contracts shipped with cmdsaw.
var (
	// CommandContract describes one CommandDoc node.
	CommandContract = mustLoadContract("command")
	// ReconcileContract describes a double-check report.
	ReconcileContract = mustLoadContract("reconcile")
	// ToolContract describes a whole ToolDoc, used when revising a document.
	ToolContract = mustLoadContract("tool")
)

// Name returns the contract name.
func (c *Contract) Name() string { return c.name }

// Version returns the contract set version.
func (c *Contract) Version() string { return ContractVersion }

// Schema returns the schema document shown to the model, with the shared
// definitions attached so the prompt is self-contained.
func (c *Contract) Schema() json.RawMessage { return c.raw }

// Validate checks raw JSON against the contract.
func (c *Contract) Validate(raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode %s result: %w", c.name, err)
	}
	if err := c.schema.Validate(inst); err != nil {
		return fmt.Errorf("%s contract: %w", c.name, err)
	}
	return nil
}

func mustLoadContract(name string) *Contract {
	c, err := loadContract(name)
	if err != nil {
		panic(err)
	}
	return c
}

func loadContract(name string) (*Contract, error) {
	compiler := jsonschema.NewCompiler()
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %s: %w", e.Name(), err)
		}
		if err := compiler.AddResource(contractBaseURL+e.Name(), doc); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", e.Name(), err)
		}
	}

	schema, err := compiler.Compile(contractBaseURL + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}

	raw, err := promptSchema(name)
	if err != nil {
		return nil, err
	}
	return &Contract{name: name, raw: raw, schema: schema}, nil
}

// promptSchema renders the contract with its definitions attached, so a
// model sees every referenced shape in one document.
func promptSchema(name string) (json.RawMessage, error) {
	main, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	defs, err := schemaFS.ReadFile("schemas/defs.json")
	if err != nil {
		return nil, fmt.Errorf("read schema defs: %w", err)
	}

	var top, shared map[string]any
	if err := json.Unmarshal(main, &top); err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", name, err)
	}
	if err := json.Unmarshal(defs, &shared); err != nil {
		return nil, fmt.Errorf("unmarshal schema defs: %w", err)
	}
	top["$defs"] = shared["$defs"]
	delete(top, "$id")
	delete(top, "$schema")
	out, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	// Local references: the prompt copy carries the definitions itself.
	return bytes.ReplaceAll(out, []byte(`"defs.json#/$defs/`), []byte(`"#/$defs/`)), nil
}
