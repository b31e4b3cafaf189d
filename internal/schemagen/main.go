// Command schemagen writes the JSON schema of a rulehub document kind.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/vibekit/rulehub/api/v1beta1/catalogs"
	"github.com/vibekit/rulehub/api/v1beta1/configs"
	"github.com/vibekit/rulehub/api/v1beta1/wizards"
	"github.com/vibekit/rulehub/pkg/yaml"
)

var (
	kind    = flag.String("kind", "configuration", "Document kind: configuration, catalog or wizard")
	outFile = flag.String("o", "schema.json", "Output file for the generated schema")
)

func main() {
	flag.Parse()

	var v any

	switch *kind {
	case "configuration":
		v = &configs.Config{}
	case "catalog":
		v = &catalogs.RuleCatalog{}
	case "wizard":
		v = &wizards.WizardConfiguration{}
	default:
		log.Fatalf("unknown kind %q", *kind)
	}

	jsData, err := yaml.GenerateSchema(v)
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(*outFile, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
