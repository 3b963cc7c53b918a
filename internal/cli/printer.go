package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/docpipe/docpipe/internal/client"
	"sigs.k8s.io/yaml"
)

func printResource(out io.Writer, output string, resource any, table func(w *tabwriter.Writer)) error {
	switch output {
	case jsonFormat:
		marshalled, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(out, "%s\n", string(marshalled))
		return nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(out, "%s", string(marshalled))
		return nil
	default:
		w := tabwriter.NewWriter(out, 0, 8, 1, '\t', 0)
		table(w)
		return w.Flush()
	}
}

func printStatusTable(w *tabwriter.Writer, id string, s *client.Status) {
	fmt.Fprintln(w, "ID\tFILE\tSTATUS\tCONVERTED")
	converted := "-"
	if s.ConvertedPath != nil {
		converted = *s.ConvertedPath
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, s.FileName, s.Status, converted)
	if s.Error != nil {
		fmt.Fprintf(w, "\nerror: %s\n", *s.Error)
	}
}

func printMetadataTable(w *tabwriter.Writer, props map[string]string) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "PROPERTY\tVALUE")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, props[k])
	}
}
