package cli

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/platinummonkey/specbook/pkg/swagger"
)

func newExportCommand() *Command {
	cmd := &Command{
		Name:        "export",
		Description: "Download the Swagger 2.0 document of a specification",
		Flags:       flag.NewFlagSet("export", flag.ContinueOnError),
		Run:         runExport,
	}

	cmd.Flags.Int64("spec", 0, "Specification ID")
	cmd.Flags.String("format", "json", "Document format (json or yaml)")
	cmd.Flags.String("editions", "", "Comma-separated editions to include (server default when empty)")
	cmd.Flags.String("out", "", "Output file (stdout when empty)")
	cmd.Flags.String("server", DefaultServer, "Specbook server URL")

	return cmd
}

func runExport(args []string) error {
	cmd := newExportCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	specID := flagInt64(cmd.Flags, "spec")
	out := cmd.Flags.Lookup("out").Value.String()
	server := cmd.Flags.Lookup("server").Value.String()

	if specID <= 0 {
		return fmt.Errorf("spec is required")
	}
	format, err := swagger.ParseFormat(strings.ToLower(cmd.Flags.Lookup("format").Value.String()))
	if err != nil {
		return err
	}

	body, err := fetchDocument(newClient(server), specID, splitList(cmd.Flags.Lookup("editions").Value.String()), format)
	if err != nil {
		return err
	}

	if out == "" {
		_, err := stdout.Write(body)
		return err
	}
	if err := os.WriteFile(out, body, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	logger.WithField("file", out).WithField("bytes", len(body)).Info("Exported specification")
	return nil
}

// fetchDocument downloads the rendering of specID in format
func fetchDocument(c *client, specID int64, editions []string, format swagger.Format) ([]byte, error) {
	query := url.Values{}
	for _, e := range editions {
		query.Add("edition", e)
	}
	return c.do(http.MethodGet, fmt.Sprintf("/api/v1/specifications/%d/%s", specID, format.Filename()), query, "", nil)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
