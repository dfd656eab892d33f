package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	rubix "github.com/RubixML/Client"
)

// query runs one client operation and returns its JSON-encodable result.
type query func(ctx context.Context, client *rubix.Client, ds rubix.Dataset) (any, error)

func predict(ctx context.Context, client *rubix.Client, ds rubix.Dataset) (any, error) {
	return client.Predict(ctx, ds)
}

func proba(ctx context.Context, client *rubix.Client, ds rubix.Dataset) (any, error) {
	return client.Proba(ctx, ds)
}

func score(ctx context.Context, client *rubix.Client, ds rubix.Dataset) (any, error) {
	return client.Score(ctx, ds)
}

func (c *cli) queryCmd(use, short string, run query) *cobra.Command {
	var samplesPath string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Samples are read as a JSON array of rows, for example [[1.5, "red"], [0.2, "blue"]],
from the file given with --samples or from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.readSamples(samplesPath)
			if err != nil {
				return err
			}
			client, err := c.newClient(cmd.Flags())
			if err != nil {
				return err
			}

			result, err := run(cmd.Context(), client, ds)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&samplesPath, "samples", "s", "-", "JSON file with the samples, - for stdin")
	return cmd
}

func (c *cli) readSamples(path string) (rubix.Unlabeled, error) {
	var r io.Reader = c.stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var samples rubix.Unlabeled
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&samples); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples given")
	}
	return samples, nil
}
