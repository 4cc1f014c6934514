package heavy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// LabelMapFile holds the class index to label mapping inside the model dir.
const LabelMapFile = "label_map.json"

// LabelMap maps output indices of the transformer head to category labels.
type LabelMap map[string]string

// LoadLabelMap reads label_map.json from dir.
func LoadLabelMap(dir string) (LabelMap, error) {
	data, err := os.ReadFile(filepath.Join(dir, LabelMapFile)) //nolint:gosec // configured model directory
	if err != nil {
		return nil, fmt.Errorf("failed to read label map: %w", err)
	}

	var labels LabelMap
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("failed to parse label map: %w", err)
	}
	return labels, nil
}

// Label resolves a class index. Indices missing from the map come back as
// their decimal string.
func (m LabelMap) Label(idx int) string {
	key := strconv.Itoa(idx)
	if label, ok := m[key]; ok {
		return label
	}
	return key
}
