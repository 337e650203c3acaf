package cmd

import (
	"fmt"
	"io"
	"os"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// encoder writes one report value.
type encoder func(w io.Writer, v any) error

func newEncoder(format string) (encoder, error) {
	switch format {
	case "json":
		return encodeJSON, nil
	case "yaml":
		return encodeYAML, nil
	}
	return nil, fmt.Errorf("unknown output format %q: want json or yaml", format)
}

// ConfigCompatibleWithStandardLibrary sorts map keys, keeping output stable.
var jsonAPI = json.ConfigCompatibleWithStandardLibrary

func encodeJSON(w io.Writer, v any) error {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func (a *app) write(cmd *cobra.Command, v any) error {
	enc, err := newEncoder(a.opts.output)
	if err != nil {
		return err
	}
	return enc(cmd.OutOrStdout(), v)
}

// readInput reads a file argument, or standard input for "-".
func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
