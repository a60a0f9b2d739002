// Package main checks the API description for backward-incompatible changes.
//
// The current document is the one compiled into scrolla/docs unless -revision
// names a file. Baselines may be JSON or YAML.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"scrolla/docs"

	"gopkg.in/yaml.v3"
)

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"patch": true, "head": true, "options": true,
}

// apiDoc maps path -> method -> set of documented response codes.
type apiDoc map[string]map[string]map[string]bool

func main() {
	basePath := flag.String("base", "", "baseline swagger document (JSON or YAML)")
	revisionPath := flag.String("revision", "", "document to check; defaults to the compiled-in docs")
	write := flag.String("write", "", "write the compiled-in document to this path and exit")
	flag.Parse()

	if *write != "" {
		if err := os.WriteFile(*write, []byte(docs.SwaggerInfo.ReadDoc()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write baseline: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("baseline written to %s\n", *write)
		return
	}
	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: apicheck -base <path> [-revision <path>] | -write <path>")
		os.Exit(2)
	}

	base, err := loadFile(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load base: %v\n", err)
		os.Exit(1)
	}

	var revision apiDoc
	if *revisionPath != "" {
		revision, err = loadFile(*revisionPath)
	} else {
		revision, err = parseDoc([]byte(docs.SwaggerInfo.ReadDoc()))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load revision: %v\n", err)
		os.Exit(1)
	}

	if issues := breakingChanges(base, revision); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}
	fmt.Printf("api compatible: %d paths checked\n", len(base))
}

func loadFile(path string) (apiDoc, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseDoc(raw)
}

// parseDoc reads a swagger document. JSON is a subset of YAML so one decoder
// covers both.
func parseDoc(raw []byte) (apiDoc, error) {
	var doc struct {
		Paths map[string]map[string]any `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, errors.New("missing top-level paths field")
	}

	out := make(apiDoc, len(doc.Paths))
	for path, entries := range doc.Paths {
		ops := make(map[string]map[string]bool)
		for method, entry := range entries {
			method = strings.ToLower(strings.TrimSpace(method))
			op, ok := entry.(map[string]any)
			if !httpMethods[method] || !ok {
				continue
			}
			responses, _ := op["responses"].(map[string]any)
			codes := make(map[string]bool, len(responses))
			for code := range responses {
				codes[strings.ToLower(strings.TrimSpace(code))] = true
			}
			ops[method] = codes
		}
		if len(ops) > 0 {
			out[path] = ops
		}
	}
	return out, nil
}

// breakingChanges lists paths, operations and response codes present in base
// but missing from revision. Additions are never reported.
func breakingChanges(base, revision apiDoc) []string {
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
					issues = append(issues, fmt.Sprintf("removed response code: %s %s -> %s", strings.ToUpper(method), path, code))
				}
			}
		}
	}
	sort.Strings(issues)
	return issues
}
