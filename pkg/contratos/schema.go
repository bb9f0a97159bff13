package contratos

import (
	"fmt"
)

// FieldMapping maps one nested path to a flat output column.
// Paths are one or two segments deep, matching the API's nesting.
type FieldMapping struct {
	Column string
	Path   []string
}

// NestedField declares one nested source field and the columns extracted
// from it. The source field is dropped from the record after extraction.
type NestedField struct {
	Source   string
	Mappings []FieldMapping
}

// Schema is a validated flattening schema.
type Schema struct {
	fields []NestedField
}

// NewSchema validates the declared mappings up front, so a malformed
// schema fails at construction instead of silently producing null columns.
func NewSchema(fields []NestedField) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema: no fields declared")
	}

	seenSources := make(map[string]struct{})
	seenColumns := make(map[string]struct{})

	for _, f := range fields {
		if f.Source == "" {
			return nil, fmt.Errorf("schema: empty source field name")
		}
		if _, dup := seenSources[f.Source]; dup {
			return nil, fmt.Errorf("schema: duplicate source field %q", f.Source)
		}
		seenSources[f.Source] = struct{}{}

		if len(f.Mappings) == 0 {
			return nil, fmt.Errorf("schema: field %q has no mappings", f.Source)
		}

		for _, m := range f.Mappings {
			if m.Column == "" {
				return nil, fmt.Errorf("schema: field %q has a mapping with an empty output column", f.Source)
			}
			if _, dup := seenColumns[m.Column]; dup {
				return nil, fmt.Errorf("schema: duplicate output column %q", m.Column)
			}
			seenColumns[m.Column] = struct{}{}

			if len(m.Path) < 1 || len(m.Path) > 2 {
				return nil, fmt.Errorf("schema: column %q: path depth must be 1 or 2, got %d", m.Column, len(m.Path))
			}
			for _, seg := range m.Path {
				if seg == "" {
					return nil, fmt.Errorf("schema: column %q: empty path segment", m.Column)
				}
			}
		}
	}

	return &Schema{fields: fields}, nil
}

// Sources returns the nested source field names in declaration order.
func (s *Schema) Sources() []string {
	sources := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		sources = append(sources, f.Source)
	}
	return sources
}

// Columns returns the flat output columns in declaration order.
func (s *Schema) Columns() []string {
	var columns []string
	for _, f := range s.fields {
		for _, m := range f.Mappings {
			columns = append(columns, m.Column)
		}
	}
	return columns
}

// DefaultSchema returns the flattening schema for /contratos records:
// the four nested fields the API delivers and the columns extracted from
// each.
func DefaultSchema() *Schema {
	s, err := NewSchema([]NestedField{
		{
			Source: "compra",
			Mappings: []FieldMapping{
				{Column: "codNumCompra", Path: []string{"numero"}},
				{Column: "objeto_Compra", Path: []string{"objeto"}},
				{Column: "numeroProcesso_Compra", Path: []string{"numeroProcesso"}},
				{Column: "contatoResponsavel_Compra", Path: []string{"contatoResponsavel"}},
			},
		},
		{
			Source: "unidadeGestora",
			Mappings: []FieldMapping{
				{Column: "codUnidadeGestora", Path: []string{"codigo"}},
				{Column: "nome_UnidadeGestora", Path: []string{"nome"}},
				{Column: "descricaoPoder_UnidadeGestora", Path: []string{"descricaoPoder"}},
				{Column: "orgaoVinculado_codigoSIAFI", Path: []string{"orgaoVinculado", "codigoSIAFI"}},
				{Column: "orgaoVinculado_cnpj", Path: []string{"orgaoVinculado", "cnpj"}},
				{Column: "orgaoVinculado_sigla", Path: []string{"orgaoVinculado", "sigla"}},
				{Column: "orgaoVinculado_nome", Path: []string{"orgaoVinculado", "nome"}},
				{Column: "orgaoMaximo_codigo", Path: []string{"orgaoMaximo", "codigo"}},
				{Column: "orgaoMaximo_sigla", Path: []string{"orgaoMaximo", "sigla"}},
				{Column: "orgaoMaximo_nome", Path: []string{"orgaoMaximo", "nome"}},
			},
		},
		{
			Source: "fornecedor",
			Mappings: []FieldMapping{
				{Column: "id_fornecedor", Path: []string{"id"}},
				{Column: "cpfFormatado_fornecedor", Path: []string{"cpfFormatado"}},
				{Column: "cnpjFormatado_fornecedor", Path: []string{"cnpjFormatado"}},
				{Column: "numeroInscricaoSocial_fornecedor", Path: []string{"numeroInscricaoSocial"}},
				{Column: "nome_fornecedor", Path: []string{"nome"}},
				{Column: "razaoSocialReceita_fornecedor", Path: []string{"razaoSocialReceita"}},
				{Column: "nomeFantasiaReceita_fornecedor", Path: []string{"nomeFantasiaReceita"}},
				{Column: "tipo_fornecedor", Path: []string{"tipo"}},
			},
		},
		{
			Source: "unidadeGestoraCompras",
			Mappings: []FieldMapping{
				{Column: "codigo_UnidadeGestoraCompras", Path: []string{"codigo"}},
				{Column: "nome_UnidadeGestoraCompras", Path: []string{"nome"}},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return s
}
