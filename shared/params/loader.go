package params

import (
	"io/ioutil"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// LoadChainConfigFile reads a spec-format YAML file such as mainnet.yaml or
// minimal.yaml, applies its values on top of the current beacon chain config,
// and installs the result as the active config.
func LoadChainConfigFile(chainConfigFileName string) error {
	yamlFile, err := ioutil.ReadFile(chainConfigFileName)
	if err != nil {
		return errors.Wrap(err, "could not read chain config file")
	}
	conf := BeaconConfig().Copy()
	if err := yaml.Unmarshal(yamlFile, conf); err != nil {
		return errors.Wrap(err, "could not parse chain config yaml file")
	}
	OverrideBeaconConfig(conf)
	return nil
}
