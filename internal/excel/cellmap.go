package excel

import (
	"encoding/json"
	"os"

	"hodiny/internal/logger"

	"github.com/xuri/excelize/v2"
)

// CellRef points a logical field at a concrete cell of a concrete workbook.
type CellRef struct {
	File  string `json:"file"`
	Sheet string `json:"sheet"`
	Cell  string `json:"cell"`
}

// CellMap is the operator-editable coordinate override document:
// dataType ("weekly_time", "monthly_time", "advances") -> field -> refs.
// When a field has refs matching the active file, writes go to those cells
// instead of the computed coordinates.
type CellMap map[string]map[string][]CellRef

// LoadCellMap reads the override document. A missing file yields an empty
// map; a malformed one is logged and treated as empty.
func LoadCellMap(path string) CellMap {
	data, err := os.ReadFile(path)
	if err != nil {
		return CellMap{}
	}
	var m CellMap
	if err := json.Unmarshal(data, &m); err != nil {
		logger.Error("cell map unreadable, ignoring", "path", path, "err", err)
		return CellMap{}
	}
	return m
}

// Coordinates resolves the configured (col, row) pairs for a field, keeping
// only refs that match the given file and, when non-empty, sheet. Mismatches
// and invalid cell names are skipped with a warning.
func (m CellMap) Coordinates(dataType, field, file, sheet string) [][2]int {
	var coords [][2]int
	for _, ref := range m[dataType][field] {
		if ref.File != file {
			logger.Warn("cell map ref targets another file", "type", dataType, "field", field, "file", ref.File)
			continue
		}
		if sheet != "" && ref.Sheet != sheet {
			logger.Warn("cell map ref targets another sheet", "type", dataType, "field", field, "sheet", ref.Sheet)
			continue
		}
		if ref.Cell == "" {
			continue
		}
		col, row, err := excelize.CellNameToCoordinates(ref.Cell)
		if err != nil {
			logger.Error("invalid cell in cell map", "type", dataType, "field", field, "cell", ref.Cell, "err", err)
			continue
		}
		coords = append(coords, [2]int{col, row})
	}
	return coords
}
