package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/querykit/v1/catalog"
	"github.com/Aleph-Alpha/querykit/v1/docstore"
	"github.com/Aleph-Alpha/querykit/v1/filter"
	"github.com/Aleph-Alpha/querykit/v1/minio"
)

// paramOptions is shared by the commands taking filter parameters.
type paramOptions struct {
	JSON string
}

func (p *paramOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.JSON, "json", "", "parameters as a JSON object instead of key=value arguments")
}

// NewQueryCommand creates the query command.
func NewQueryCommand(root *RootOptions) *cobra.Command {
	params := &paramOptions{}
	cmd := &cobra.Command{
		Use:   "query <entity> [key=value...]",
		Short: "Run a query and print the matching entities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(args[1:], params.JSON)
			if err != nil {
				return err
			}
			return root.run(cmd, func(ctx context.Context, svc *catalog.Service) error {
				res, err := svc.Query(ctx, args[0], p)
				if err != nil {
					return err
				}
				if err := writeJSON(cmd.OutOrStdout(), newResultOutput(res)); err != nil {
					return err
				}
				if res.IsSingle && res.Single == nil {
					return newExitError(ExitNotFound, fmt.Sprintf("no %s matches", args[0]))
				}
				return nil
			})
		},
	}
	params.register(cmd)
	return cmd
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(root *RootOptions) *cobra.Command {
	params := &paramOptions{}
	cmd := &cobra.Command{
		Use:   "explain <entity> [key=value...]",
		Short: "Show how a query would be answered without running it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(args[1:], params.JSON)
			if err != nil {
				return err
			}
			return root.run(cmd, func(ctx context.Context, svc *catalog.Service) error {
				e, err := svc.Explain(ctx, args[0], p)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), newExplainOutput(e))
			})
		},
	}
	params.register(cmd)
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(root *RootOptions) *cobra.Command {
	params := &paramOptions{}
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "delete <entity> key=value...",
		Short: "Delete matching entities and cascade to their dependents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(args[1:], params.JSON)
			if err != nil {
				return err
			}
			if !confirmed {
				return newExitError(ExitUsage, "refusing to delete without --yes")
			}
			return root.run(cmd, func(ctx context.Context, svc *catalog.Service) error {
				res, err := svc.Delete(ctx, args[0], p)
				if err != nil {
					if res.Total() > 0 {
						_ = writeJSON(cmd.OutOrStdout(), newDeletionOutput(res))
					}
					return err
				}
				return writeJSON(cmd.OutOrStdout(), newDeletionOutput(res))
			})
		},
	}
	params.register(cmd)
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm the deletion")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(root *RootOptions) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "update <entity> <id> --data <json>",
		Short: "Patch the mutable fields of one entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseObject(data)
			if err != nil {
				return err
			}
			return root.run(cmd, func(ctx context.Context, svc *catalog.Service) error {
				doc, err := svc.Update(ctx, args[0], parseID(args[1]), patch)
				if err != nil {
					return err
				}
				if doc == nil {
					return newExitError(ExitNotFound, fmt.Sprintf("no %s with id %s", args[0], args[1]))
				}
				return writeJSON(cmd.OutOrStdout(), doc)
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object of fields to set")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(root *RootOptions) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "insert <entity> --data <json>",
		Short: "Store a new entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseObject(data)
			if err != nil {
				return err
			}
			return root.run(cmd, func(ctx context.Context, svc *catalog.Service) error {
				doc, err := svc.Insert(ctx, args[0], values)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), doc)
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object of the entity's fields")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// NewExportCommand creates the export command.
func NewExportCommand(root *RootOptions) *cobra.Command {
	params := &paramOptions{}
	var snapshot, out string
	cmd := &cobra.Command{
		Use:   "export <entity> [key=value...] (--snapshot <name> | --out <file>)",
		Short: "Save query results as a seed snapshot",
		Long: `export runs a query and saves the matching entities in the seed format,
either as a MinIO snapshot or as a local file. Either can be replayed with
--memory --seed minio:<name> or --memory --seed <file>.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (snapshot == "") == (out == "") {
				return newExitError(ExitUsage, "give exactly one of --snapshot or --out")
			}
			p, err := parseParams(args[1:], params.JSON)
			if err != nil {
				return err
			}
			if snapshot != "" {
				cfg, err := root.config()
				if err != nil {
					return err
				}
				if cfg.Minio.Connection.Endpoint == "" {
					return newExitError(ExitUsage, "--snapshot requires minio.connection.endpoint")
				}
			}

			var store *minio.Client
			var populate []any
			if snapshot != "" {
				populate = append(populate, &store)
			}
			return root.run(cmd, func(ctx context.Context, svc *catalog.Service) error {
				desc, err := svc.Registry().Describe(args[0])
				if err != nil {
					return err
				}
				res, err := svc.Query(ctx, args[0], p)
				if err != nil {
					return err
				}

				docs := res.Items
				if res.IsSingle {
					docs = nil
					if res.Single != nil {
						docs = []docstore.Document{res.Single}
					}
				}
				body, err := encodeSnapshot(desc.Collection, docs)
				if err != nil {
					return err
				}

				target := out
				if snapshot != "" {
					target = seedMinioPrefix + snapshot
					err = store.PutSnapshot(ctx, snapshot, body)
				} else {
					err = os.WriteFile(out, body, 0o644)
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), exportOutput{
					Entity:     args[0],
					Collection: desc.Collection,
					Count:      len(docs),
					Seed:       target,
				})
			}, populate...)
		},
	}
	params.register(cmd)
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "name of the MinIO snapshot to write")
	cmd.Flags().StringVarP(&out, "out", "o", "", "path of a local file to write")
	return cmd
}

// parseParams reads key=value arguments with the bracket syntax of
// filter.FromValues, or a JSON object when rawJSON is set.
func parseParams(args []string, rawJSON string) (filter.Params, error) {
	if rawJSON != "" {
		if len(args) > 0 {
			return nil, newExitError(ExitUsage, "use either --json or key=value arguments")
		}
		m, err := parseObject(rawJSON)
		if err != nil {
			return nil, err
		}
		return filter.FromMap(m), nil
	}

	values := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, newExitError(ExitUsage, fmt.Sprintf("argument %q is not key=value", arg))
		}
		values.Add(key, value)
	}
	return filter.FromValues(values), nil
}

func parseObject(raw string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: "invalid JSON object", Err: err}
	}
	if m == nil {
		return nil, newExitError(ExitUsage, "expected a JSON object")
	}
	return m, nil
}

// parseID reads an integer identity, falling back to the raw string.
func parseID(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}
