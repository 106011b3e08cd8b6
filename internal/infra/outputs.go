package infra

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Print writes the outputs as "Key = value" lines.
func (o Outputs) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "WebsiteBucketName = %s\nCloudFrontURL = %s\nDistributionId = %s\n",
		o.BucketName, o.DistributionDomainName, o.DistributionID)
	return err
}

// WriteFile stores the outputs as indented JSON at path.
func (o Outputs) WriteFile(path string) error {
	b, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}
	return nil
}
