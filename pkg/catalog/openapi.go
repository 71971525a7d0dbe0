package catalog

import (
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/schema"
)

// ImportOpenAPIFile reads an OpenAPI document and converts its operations
// into function definitions: operationId becomes the function name,
// summary the description, and the JSON request-body schema the
// parameter set. Operations without an operationId are skipped; a domain
// function must have a stable name.
func ImportOpenAPIFile(path string) ([]domain.FunctionDefinition, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI document %s: %w", path, err)
	}
	return importOperations(doc)
}

// ImportOpenAPI converts an already-parsed OpenAPI document.
func ImportOpenAPI(data []byte) ([]domain.FunctionDefinition, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI document: %w", err)
	}
	return importOperations(doc)
}

func importOperations(doc *openapi3.T) ([]domain.FunctionDefinition, error) {
	if doc.Paths == nil {
		return nil, nil
	}

	var functions []domain.FunctionDefinition
	seen := make(map[string]bool)
	for _, item := range doc.Paths.Map() {
		for _, op := range item.Operations() {
			if op == nil || op.OperationID == "" {
				continue
			}
			if seen[op.OperationID] {
				return nil, fmt.Errorf("operationId %s appears more than once", op.OperationID)
			}
			seen[op.OperationID] = true

			description := op.Summary
			if description == "" {
				description = op.Description
			}

			params, err := importParameters(op)
			if err != nil {
				return nil, fmt.Errorf("operation %s: %w", op.OperationID, err)
			}

			functions = append(functions, domain.FunctionDefinition{
				Name:        op.OperationID,
				Description: description,
				Parameters:  params,
			})
		}
	}

	sort.Slice(functions, func(i, j int) bool { return functions[i].Name < functions[j].Name })
	return functions, nil
}

func importParameters(op *openapi3.Operation) (map[string]domain.ParameterSpec, error) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, nil
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, nil
	}

	body := media.Schema.Value
	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	params := make(map[string]domain.ParameterSpec, len(body.Properties))
	for name, ref := range body.Properties {
		if ref == nil || ref.Value == nil {
			return nil, fmt.Errorf("property %s has no schema", name)
		}
		prop := ref.Value
		params[name] = domain.ParameterSpec{
			Type:        kindFor(prop),
			Required:    required[name],
			Nullable:    prop.Nullable,
			Description: prop.Description,
		}
	}
	return params, nil
}

// kindFor maps an OpenAPI property schema to the closest validator kind.
func kindFor(prop *openapi3.Schema) string {
	t := prop.Type
	switch {
	case t == nil:
		return schema.KindString
	case t.Is(openapi3.TypeInteger), t.Is(openapi3.TypeNumber):
		return schema.KindNumber
	case t.Is(openapi3.TypeObject):
		return schema.KindObject
	case t.Is(openapi3.TypeArray):
		return schema.KindArray
	case t.Is(openapi3.TypeString):
		switch prop.Format {
		case "date":
			return schema.KindDate
		case "date-time":
			return schema.KindDateTime
		case "email":
			return schema.KindEmail
		default:
			return schema.KindString
		}
	default:
		return schema.KindString
	}
}
