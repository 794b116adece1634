package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"

	"github.com/platinummonkey/specbook/pkg/api"
)

func newPublishCommand() *Command {
	cmd := &Command{
		Name:        "publish",
		Description: "Upload the exported documents of a specification to object storage",
		Flags:       flag.NewFlagSet("publish", flag.ContinueOnError),
		Run:         runPublish,
	}

	cmd.Flags.Int64("spec", 0, "Specification ID")
	cmd.Flags.String("server", DefaultServer, "Specbook server URL")

	return cmd
}

func runPublish(args []string) error {
	cmd := newPublishCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	specID := flagInt64(cmd.Flags, "spec")
	server := cmd.Flags.Lookup("server").Value.String()
	if specID <= 0 {
		return fmt.Errorf("spec is required")
	}

	payload, err := newClient(server).do(http.MethodPost, fmt.Sprintf("/api/v1/specifications/%d/publish", specID), nil, "", nil)
	if err != nil {
		return err
	}

	var resp api.PublishResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("failed to decode publish response: %w", err)
	}
	for _, obj := range resp.Objects {
		fmt.Fprintf(stdout, "%s\t%d bytes\t%s\n", obj.Key, obj.Size, obj.Checksum)
	}
	fmt.Fprintf(stdout, "Published specification %d (%d objects)\n", specID, len(resp.Objects))
	return nil
}
