// Command sqllint checks that every SQL constant starts with a unique
// "--sql <uuid>" marker, which the SQL runner requires and logs by.
package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const defaultTarget = "internal/sqlinline"

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with|create)\b`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

type query struct {
	marker string
	file   string
	name   string
	line   int
}

func main() {
	cmd := &cobra.Command{
		Use:           "sqllint [path...]",
		Short:         "Verify SQL audit markers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{defaultTarget}
			}
			violations, err := lint(args)
			if err != nil {
				return err
			}
			if len(violations) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "sqllint: missing or duplicate SQL audit markers")
				for _, v := range violations {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", v)
				}
				return fmt.Errorf("%d violation(s)", len(violations))
			}
			return nil
		},
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
}

// lint scans the Go files under targets. Test files and directories starting
// with "." or "_" are skipped.
func lint(targets []string) ([]violation, error) {
	var violations []violation
	var queries []query
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			vs, qs, err := lintFile(target)
			if err != nil {
				return nil, err
			}
			violations = append(violations, vs...)
			queries = append(queries, qs...)
			continue
		}
		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			vs, qs, err := lintFile(path)
			if err != nil {
				return err
			}
			violations = append(violations, vs...)
			queries = append(queries, qs...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return append(violations, duplicates(queries)...), nil
}

func lintFile(path string) ([]violation, []query, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, nil, err
	}
	var violations []violation
	var queries []query
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			name := ""
			if i < len(vs.Names) {
				name = vs.Names[i].Name
			}
			line := fset.Position(bl.Pos()).Line
			marker := firstLine(raw)
			if !uuidMarkerPattern.MatchString(marker) {
				violations = append(violations, violation{file: path, line: line, name: name, message: "missing or invalid --sql <uuid> marker"})
				continue
			}
			queries = append(queries, query{marker: marker, file: path, name: name, line: line})
		}
		return true
	})
	return violations, queries, nil
}

// duplicates flags every query after the first that reuses a marker.
func duplicates(queries []query) []violation {
	sort.SliceStable(queries, func(i, j int) bool {
		if queries[i].file != queries[j].file {
			return queries[i].file < queries[j].file
		}
		return queries[i].line < queries[j].line
	})
	first := make(map[string]query, len(queries))
	var out []violation
	for _, q := range queries {
		if prev, ok := first[q.marker]; ok {
			out = append(out, violation{
				file:    q.file,
				line:    q.line,
				name:    q.name,
				message: fmt.Sprintf("marker already used by %s", prev.name),
			})
			continue
		}
		first[q.marker] = q
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if v == "" {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
