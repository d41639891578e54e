package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"physioeval/internal/codec"
	"physioeval/internal/domain"
	"physioeval/internal/hub"
	"physioeval/internal/loader"
	"physioeval/internal/service"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid evaluation id %q", s)
	}
	return id, nil
}

// readFields builds a field map from an optional document (path or "-" for
// stdin) and then applies --field name=value overrides.
func readFields(cmd *cobra.Command) (domain.FieldMap, error) {
	from, _ := cmd.Flags().GetString("from")
	sets, _ := cmd.Flags().GetStringArray("field")

	fields := domain.FieldMap{}
	if from != "" {
		var r io.Reader = cmd.InOrStdin()
		dec := codec.Decoder(codec.NewJSONCodec())
		if from != "-" {
			f, err := os.Open(from)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
			dec = codec.ForPath(from)
		}

		m, err := dec.Decode(r)
		if err != nil {
			return nil, err
		}
		fields = m
	}

	for _, set := range sets {
		name, value, ok := strings.Cut(set, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --field %q, want name=value", set)
		}
		if _, known := domain.KindOf(name); !known {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		fields[name] = value
	}
	return fields, nil
}

func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "Read fields from a JSON/YAML document ('-' for stdin)")
	cmd.Flags().StringArray("field", nil, "Set a field: 'Nombre Completo=Ana' (repeatable)")
}

func listCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List evaluations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			page, _ := cmd.Flags().GetInt("page")
			limit, _ := cmd.Flags().GetInt("limit")
			q := domain.ListQuery{Filter: filter, Page: page, Limit: limit}

			rows, err := a.loadList(cmd.Context(), q)
			if err != nil {
				return err
			}

			total, err := a.evaluations.Count(cmd.Context(), filter)
			if err != nil {
				return err
			}

			printSummaries(cmd.OutOrStdout(), rows)
			if limit <= 0 {
				if page < 1 {
					page = 1
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d evaluations)\n", page, domain.Pages(total), total)
			}
			return nil
		},
	}
	cmd.Flags().String("filter", "", "Case-insensitive substring of the patient name")
	cmd.Flags().Int("page", 1, "Page number (30 per page)")
	cmd.Flags().Int("limit", 0, "Return the first N rows instead of a page")
	return cmd
}

// loadList runs the query through the background loader and waits for the
// consumer loop to deliver it.
func (a *app) loadList(ctx context.Context, q domain.ListQuery) ([]domain.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := hub.New(a.cfg.Queue.PollInterval.Duration(), a.log)
	l := loader.New(a.evaluations, queue, a.log)

	var rows []domain.Summary
	var loadErr error
	l.List(ctx, q, func(r []domain.Summary, err error) {
		rows, loadErr = r, err
		cancel()
	})

	queue.Run(ctx)
	l.Wait()
	queue.Drain()

	if loadErr != nil {
		return nil, loadErr
	}
	if rows == nil {
		return nil, ctx.Err()
	}
	return rows, nil
}

func printSummaries(w io.Writer, rows []domain.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPATIENT\tAGE\tGENDER\tNEXT VISIT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.EvaluatedAt, r.PatientName, r.PatientAge, r.PatientGender, r.NextVisit)
	}
	tw.Flush()
}

func showCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one evaluation as a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")

			fields, err := a.evaluations.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if fields == nil {
				return fmt.Errorf("evaluation %d: %w", id, domain.ErrNotFound)
			}

			return codec.ForPath("show." + format).Encode(fields, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("format", "json", "Output format: json or yaml")
	return cmd
}

func saveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a new evaluation",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := readFields(cmd)
			if err != nil {
				return err
			}

			id, err := a.evaluations.Save(cmd.Context(), fields)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved evaluation %d\n", id)
			return nil
		},
	}
	addFieldFlags(cmd)
	return cmd
}

func updateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Overwrite an evaluation; fields not given are cleared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			fields, err := readFields(cmd)
			if err != nil {
				return err
			}

			ok, err := a.evaluations.Update(cmd.Context(), id, fields)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("evaluation %d: %w", id, domain.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated evaluation %d\n", id)
			return nil
		},
	}
	addFieldFlags(cmd)
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an evaluation with its sections and patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ok, err := a.evaluations.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("evaluation %d: %w", id, domain.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted evaluation %d\n", id)
			return nil
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write an evaluation to a JSON or YAML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = filepath.Join(a.cfg.Export.Dir, service.ExportFileName(id))
			}

			if err := a.exchange.ExportToFile(cmd.Context(), id, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported evaluation %d to %s\n", id, out)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output path (default: <export.dir>/evaluation_<id>.json)")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>...",
		Short: "Import documents as new evaluations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, path := range args {
				id, err := a.exchange.Import(cmd.Context(), path)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as evaluation %d\n", path, id)
			}
			return errors.Join(errs...)
		},
	}
}
