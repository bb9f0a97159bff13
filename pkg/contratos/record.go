// Package contratos implements the contract fetch and flattening pipeline
// for the Portal da Transparência /contratos endpoint: sequential
// pagination, declarative flattening of nested fields, and Brazilian
// locale formatting of the currency columns.
package contratos

// Record is one contract as returned by the API. The structure is
// heterogeneous: nested objects arrive either as native JSON objects or as
// string-encoded ones, so records stay schemaless until flattened.
type Record map[string]any
