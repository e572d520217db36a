// Command apicompat fails when the API documented in this build drops a
// route, a method or a response code that a baseline still documents.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"chapel/docs"

	"gopkg.in/yaml.v3"
)

var methods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"patch": true, "head": true, "options": true,
}

// surface maps path -> method -> documented response codes.
type surface map[string]map[string]map[string]bool

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("apicompat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	basePath := fs.String("base", "", "baseline swagger document (yaml or json)")
	revisionPath := fs.String("revision", "", "document to check; defaults to the one compiled into this build")
	writePath := fs.String("write", "", "write the compiled document as yaml to this path and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *writePath != "" {
		return writeBaseline(*writePath)
	}
	if strings.TrimSpace(*basePath) == "" {
		return errors.New("usage: apicompat -base <path> [-revision <path>] | -write <path>")
	}

	base, err := loadFile(*basePath)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	var revision surface
	if *revisionPath != "" {
		revision, err = loadFile(*revisionPath)
	} else {
		revision, err = parse([]byte(docs.SwaggerInfo.ReadDoc()))
	}
	if err != nil {
		return fmt.Errorf("load revision: %w", err)
	}

	if issues := breakingChanges(base, revision); len(issues) > 0 {
		fmt.Fprintln(stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(stderr, "- %s\n", issue)
		}
		return fmt.Errorf("%d breaking change(s)", len(issues))
	}
	fmt.Fprintln(stdout, "api compatibility check passed")
	return nil
}

func writeBaseline(path string) error {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		return fmt.Errorf("decode compiled document: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func loadFile(path string) (surface, error) {
	// #nosec G304: operator-supplied path
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

// parse accepts yaml or json; json is valid yaml.
func parse(raw []byte) (surface, error) {
	var doc struct {
		Paths map[string]map[string]yaml.Node `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, errors.New("missing top-level paths field")
	}

	out := make(surface, len(doc.Paths))
	for path, ops := range doc.Paths {
		for method, node := range ops {
			m := strings.ToLower(strings.TrimSpace(method))
			if !methods[m] {
				continue
			}
			var op struct {
				Responses map[string]yaml.Node `yaml:"responses"`
			}
			if err := node.Decode(&op); err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(m), path, err)
			}
			codes := make(map[string]bool, len(op.Responses))
			for code := range op.Responses {
				if c := strings.ToLower(strings.TrimSpace(code)); c != "" {
					codes[c] = true
				}
			}
			if out[path] == nil {
				out[path] = map[string]map[string]bool{}
			}
			out[path][m] = codes
		}
	}
	return out, nil
}

func breakingChanges(base, revision surface) []string {
	var issues []string
	for path, baseOps := range base {
		revOps, ok := revision[path]
		if !ok {
			issues = append(issues, "removed path: "+path)
			continue
		}
		for method, codes := range baseOps {
			revCodes, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}
			for code := range codes {
				if !revCodes[code] {
					issues = append(issues, fmt.Sprintf("removed response code: %s %s -> %s", strings.ToUpper(method), path, strings.ToUpper(code)))
				}
			}
		}
	}
	sort.Strings(issues)
	return issues
}
