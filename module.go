package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v2"
)

const manifestName = "PLC Module Information"

type plcModule struct {
	Package string `yaml:"Package"`
	Entry   string `yaml:"Entry"`
	Output  string `yaml:"Output"`
}

func newModule(name string) plcModule {
	return plcModule{
		Package: name,
		Entry:   "main.plc",
		Output:  "Main.java",
	}
}

func writeModule(path string, mod plcModule) error {
	out, err := yaml.Marshal(mod)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", manifestName, err)
	}
	return ioutil.WriteFile(path, out, 0644)
}

// readModule loads the manifest at path. A missing manifest is not an
// error; the defaults are used instead.
func readModule(path string) (plcModule, error) {
	mod := newModule("")

	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return mod, nil
	}
	if err != nil {
		return mod, fmt.Errorf("error reading %s: %w", manifestName, err)
	}

	err = yaml.Unmarshal(data, &mod)
	if err != nil {
		return mod, fmt.Errorf("error reading %s: %w", manifestName, err)
	}
	if mod.Entry == "" {
		mod.Entry = "main.plc"
	}
	if mod.Output == "" {
		mod.Output = "Main.java"
	}
	return mod, nil
}
