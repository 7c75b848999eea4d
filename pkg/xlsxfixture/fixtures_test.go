package xlsxfixture

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/registry"
	"github.com/xuri/excelize/v2"
)

const testSchema = `
models:
  - app: myapp
    name: Person
    fields:
      - {name: id, kind: identifier}
      - {name: name, kind: text}
      - {name: age, kind: integer, null: true}
  - app: myapp
    name: Recipe
    fields:
      - {name: id, kind: identifier}
      - {name: name, kind: text}
      - {name: servings, kind: integer}
      - {name: price, kind: decimal}
      - {name: vegetarian, kind: boolean}
      - {name: cooking_time, kind: duration}
      - {name: published, kind: date}
      - {name: created_at, kind: datetime}
      - {name: owner, kind: relation, to: myapp.Person}
  - app: myapp
    name: Ingredient
    natural_key: [name]
    fields:
      - {name: name, kind: text}
      - {name: added, kind: datetime, auto_now_add: true}
`

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.Load([]byte(testSchema))
	require.NoError(t, err)
	return r
}

func testModel(t *testing.T, r *registry.Registry, identifier string) *models.Model {
	t.Helper()
	m, err := r.Model(identifier)
	require.NoError(t, err)
	return m
}

type sheetData struct {
	name string
	rows [][]interface{}
}

// workbook builds an in-memory workbook with the given sheets in order.
func workbook(t *testing.T, sheets ...sheetData) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(s.name, cell, &values))
		}
	}
	return f
}
