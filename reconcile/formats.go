package reconcile

import (
	_ "embed"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

//go:embed formats.yaml
var formatsYAML []byte

var formatTables map[string]map[string]string

func init() {
	if err := yaml.Unmarshal(formatsYAML, &formatTables); err != nil {
		panic("reconcile: bad formats.yaml: " + err.Error())
	}
}

// NetworkFormat maps a mediation ad format into the network's own format
// vocabulary. Combinations outside the table pass through lowercased.
func NetworkFormat(network, adFormat string) string {
	if table, ok := formatTables[network]; ok {
		if mapped, ok := table[strings.ToUpper(adFormat)]; ok {
			return mapped
		}
	}
	return strings.ToLower(adFormat)
}
