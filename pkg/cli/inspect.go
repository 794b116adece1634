package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/specbook/pkg/swagger"
)

func newInspectCommand() *Command {
	cmd := &Command{
		Name:        "inspect",
		Description: "Summarize a Swagger 2.0 document, optionally converting it to OpenAPI 3",
		Flags:       flag.NewFlagSet("inspect", flag.ContinueOnError),
		Run:         runInspect,
	}

	cmd.Flags.String("file", "", "Swagger document to read (JSON or YAML)")
	cmd.Flags.Int64("spec", 0, "Specification ID to fetch instead of a file")
	cmd.Flags.String("server", DefaultServer, "Specbook server URL")
	cmd.Flags.Bool("openapi3", false, "Print the document converted to OpenAPI 3")
	cmd.Flags.Bool("validate", false, "Validate the converted OpenAPI 3 document")

	return cmd
}

func runInspect(args []string) error {
	cmd := newInspectCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	file := cmd.Flags.Lookup("file").Value.String()
	specID := flagInt64(cmd.Flags, "spec")
	server := cmd.Flags.Lookup("server").Value.String()
	toV3 := cmd.Flags.Lookup("openapi3").Value.String() == "true"
	validate := cmd.Flags.Lookup("validate").Value.String() == "true"

	var (
		raw []byte
		err error
	)
	switch {
	case file != "":
		raw, err = os.ReadFile(file)
	case specID > 0:
		raw, err = fetchDocument(newClient(server), specID, nil, swagger.FormatJSON)
	default:
		return fmt.Errorf("file or spec is required")
	}
	if err != nil {
		return err
	}

	doc, err := loadSwagger(raw)
	if err != nil {
		return err
	}

	if !toV3 && !validate {
		printSummary(doc)
		return nil
	}

	v3, err := openapi2conv.ToV3(doc)
	if err != nil {
		return fmt.Errorf("failed to convert to OpenAPI 3: %w", err)
	}
	if validate {
		if err := v3.Validate(context.Background()); err != nil {
			return fmt.Errorf("invalid OpenAPI 3 document: %w", err)
		}
		logger.Info("OpenAPI 3 document is valid")
	}
	if toV3 {
		out, err := json.MarshalIndent(v3, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(out))
	}
	return nil
}

// loadSwagger parses a Swagger 2.0 document in JSON or YAML
func loadSwagger(raw []byte) (*openapi2.T, error) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		var generic map[string]interface{}
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("failed to parse YAML document: %w", err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML document: %w", err)
		}
		raw = converted
	}

	var doc openapi2.T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse Swagger document: %w", err)
	}
	if doc.Swagger != "2.0" {
		return nil, fmt.Errorf("not a Swagger 2.0 document (swagger: %q)", doc.Swagger)
	}
	return &doc, nil
}

func printSummary(doc *openapi2.T) {
	fmt.Fprintf(stdout, "%s %s\n", doc.Info.Title, doc.Info.Version)
	if doc.Host != "" || doc.BasePath != "" {
		fmt.Fprintf(stdout, "Base URL: %s%s (%s)\n", doc.Host, doc.BasePath, strings.Join(doc.Schemes, ", "))
	}

	uris := make([]string, 0, len(doc.Paths))
	for uri := range doc.Paths {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	operations := 0
	var lines []string
	for _, uri := range uris {
		ops := doc.Paths[uri].Operations()
		methods := make([]string, 0, len(ops))
		for method := range ops {
			methods = append(methods, method)
		}
		sort.Strings(methods)
		for _, method := range methods {
			operations++
			label := ops[method].Summary
			if label == "" {
				label = ops[method].Description
			}
			lines = append(lines, fmt.Sprintf("  %-7s %s  %s", method, uri, label))
		}
	}

	fmt.Fprintf(stdout, "Paths: %d  Operations: %d  Definitions: %d\n", len(doc.Paths), operations, len(doc.Definitions))
	for _, line := range lines {
		fmt.Fprintln(stdout, strings.TrimRight(line, " "))
	}
}
