// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// PythonInspectorOption configures a PythonInspector instance.
type PythonInspectorOption func(*PythonInspector)

// WithMaxFileSize sets the maximum source size the inspector will accept.
//
// Parameters:
//   - bytes: Maximum size in bytes. Must be positive.
//
// Example:
//
//	insp := NewPythonInspector(WithMaxFileSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxFileSize(bytes int64) PythonInspectorOption {
	return func(p *PythonInspector) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// PythonInspector implements the Inspector interface for Python source code.
//
// Description:
//
//	PythonInspector uses tree-sitter to walk Python documents and extract
//	public callable inventories and reference sets. Both operations degrade
//	to empty results on malformed input so batch callers never stop on a
//	single bad file.
//
// Thread Safety:
//
//	PythonInspector instances are safe for concurrent use. Each call creates
//	its own tree-sitter parser instance internally.
//
// Example:
//
//	insp := NewPythonInspector()
//	callables := insp.Inventory(ctx, []byte("def hello(): pass"))
//	for _, c := range callables {
//	    fmt.Println(c)
//	}
type PythonInspector struct {
	maxFileSize int64
}

// NewPythonInspector creates a new PythonInspector with the given options.
//
// Outputs:
//   - *PythonInspector: Configured inspector, never nil. Safe for concurrent use.
func NewPythonInspector(opts ...PythonInspectorOption) *PythonInspector {
	p := &PythonInspector{
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Language returns the canonical language name for this inspector.
func (p *PythonInspector) Language() string {
	return "python"
}

// Extensions returns the file extensions this inspector handles.
func (p *PythonInspector) Extensions() []string {
	return []string{".py", ".pyi"}
}

// Inventory returns the public callable definitions in the document.
//
// Description:
//
//	Walks the document's syntax tree and reports every function definition
//	whose name does not begin with an underscore. Names like __init__ are
//	excluded by the same rule. Callables defined directly inside a class
//	body carry the class name as EnclosingType; functions nested inside
//	another function body are reported flat with no enclosing type.
//	Decorated definitions span from the first decorator line.
//
// Inputs:
//   - ctx: Context for tracing and cancellation of the tree-sitter parse.
//   - content: Raw Python source bytes.
//
// Outputs:
//   - []Callable: Definitions in source order. Empty (never nil) when the
//     document is oversized, not valid UTF-8, or fails to parse cleanly.
//
// Thread Safety:
//
//	Safe for concurrent use.
func (p *PythonInspector) Inventory(ctx context.Context, content []byte) []Callable {
	ctx, span := startInspectSpan(ctx, "python", "inventory", len(content))
	defer span.End()

	start := time.Now()
	callables := make([]Callable, 0)

	root, tree, ok := p.parse(ctx, content, "inventory")
	if !ok {
		setInspectSpanResult(span, 0, true)
		recordInspectMetrics(ctx, "python", "inventory", time.Since(start), 0, true)
		return callables
	}
	defer tree.Close()

	p.collectCallables(root, content, "", 0, &callables)

	setInspectSpanResult(span, len(callables), false)
	recordInspectMetrics(ctx, "python", "inventory", time.Since(start), len(callables), false)
	return callables
}

// References returns the set of names the document appears to exercise.
//
// Description:
//
//	Unions four kinds of evidence: names bound by from-imports (the original
//	name, not the local alias), module names bound by plain imports, bare
//	callee identifiers, and attribute callee names when the receiver is a
//	bare identifier. The result is a lexical approximation; no scope or
//	alias resolution is attempted.
//
// Outputs:
//   - map[string]struct{}: Referenced names. Empty (never nil) when the
//     document is oversized, not valid UTF-8, or fails to parse cleanly.
//
// Thread Safety:
//
//	Safe for concurrent use.
func (p *PythonInspector) References(ctx context.Context, content []byte) map[string]struct{} {
	ctx, span := startInspectSpan(ctx, "python", "references", len(content))
	defer span.End()

	start := time.Now()
	refs := make(map[string]struct{})

	root, tree, ok := p.parse(ctx, content, "references")
	if !ok {
		setInspectSpanResult(span, 0, true)
		recordInspectMetrics(ctx, "python", "references", time.Since(start), 0, true)
		return refs
	}
	defer tree.Close()

	p.collectReferences(root, content, 0, refs)

	setInspectSpanResult(span, len(refs), false)
	recordInspectMetrics(ctx, "python", "references", time.Since(start), len(refs), false)
	return refs
}

// parse validates and parses the content, returning ok=false for any input
// that must degrade to an empty result. Callers own tree.Close() when ok.
func (p *PythonInspector) parse(ctx context.Context, content []byte, op string) (*sitter.Node, *sitter.Tree, bool) {
	if int64(len(content)) > p.maxFileSize {
		slog.Warn("skipping oversized document",
			slog.String("operation", op),
			slog.Int("size_bytes", len(content)),
			slog.Int64("limit_bytes", p.maxFileSize))
		return nil, nil, false
	}

	if len(content) > WarnFileSize {
		slog.Warn("inspecting large document",
			slog.String("operation", op),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		slog.Warn("skipping non-UTF-8 document", slog.String("operation", op))
		return nil, nil, false
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		slog.Warn("tree-sitter parse failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, nil, false
	}

	root := tree.RootNode()
	if root == nil || root.HasError() {
		tree.Close()
		slog.Debug("document contains syntax errors, degrading to empty result",
			slog.String("operation", op))
		return nil, nil, false
	}

	return root, tree, true
}

// collectCallables walks definition nodes. enclosing carries the class name
// for direct class-body children only; it resets when descending through
// any other node, so nested functions surface flat.
func (p *PythonInspector) collectCallables(node *sitter.Node, content []byte, enclosing string, depth int, out *[]Callable) {
	if node == nil || depth > MaxTraversalDepth {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_definition":
			p.recordCallable(child, child, content, enclosing, depth, out)
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Type() {
			case "function_definition":
				// Span starts at the first decorator.
				p.recordCallable(child, def, content, enclosing, depth, out)
			case "class_definition":
				p.descendClass(def, content, depth, out)
			}
		case "class_definition":
			p.descendClass(child, content, depth, out)
		default:
			p.collectCallables(child, content, "", depth+1, out)
		}
	}
}

// recordCallable appends a public function definition and then walks its
// body for nested definitions.
func (p *PythonInspector) recordCallable(span, def *sitter.Node, content []byte, enclosing string, depth int, out *[]Callable) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)

	if name != "" && !strings.HasPrefix(name, "_") {
		*out = append(*out, Callable{
			Name:          name,
			StartLine:     int(span.StartPoint().Row + 1),
			EndLine:       int(def.EndPoint().Row + 1),
			EnclosingType: enclosing,
		})
	}

	if body := def.ChildByFieldName("body"); body != nil {
		p.collectCallables(body, content, "", depth+1, out)
	}
}

// descendClass walks a class body with the class name as enclosing context.
func (p *PythonInspector) descendClass(class *sitter.Node, content []byte, depth int, out *[]Callable) {
	nameNode := class.ChildByFieldName("name")
	body := class.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return
	}
	p.collectCallables(body, content, nodeText(nameNode, content), depth+1, out)
}

// collectReferences walks the full tree accumulating referenced names.
func (p *PythonInspector) collectReferences(node *sitter.Node, content []byte, depth int, refs map[string]struct{}) {
	if node == nil || depth > MaxTraversalDepth {
		return
	}

	switch node.Type() {
	case "import_statement":
		p.referenceImport(node, content, refs)
		return
	case "import_from_statement":
		p.referenceImportFrom(node, content, refs)
		return
	case "call":
		p.referenceCall(node, content, refs)
		// Fall through to the children walk for nested calls in arguments.
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		p.collectReferences(node.Child(i), content, depth+1, refs)
	}
}

// referenceImport handles 'import foo' and 'import foo as bar'. The bound
// name recorded is the module path, not the alias.
func (p *PythonInspector) referenceImport(node *sitter.Node, content []byte, refs map[string]struct{}) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			refs[nodeText(child, content)] = struct{}{}
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				refs[nodeText(name, content)] = struct{}{}
			}
		}
	}
}

// referenceImportFrom handles 'from x import a, b as c'. Imported names are
// recorded under their original identifiers; the module path and local
// aliases are not. Wildcard imports bind nothing observable and are skipped.
func (p *PythonInspector) referenceImportFrom(node *sitter.Node, content []byte, refs map[string]struct{}) {
	module := node.ChildByFieldName("module_name")

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child == module {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			refs[nodeText(child, content)] = struct{}{}
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				refs[nodeText(name, content)] = struct{}{}
			}
		}
	}
}

// referenceCall records the callee name for 'f(...)' and 'obj.f(...)' where
// obj is a bare identifier.
func (p *PythonInspector) referenceCall(node *sitter.Node, content []byte, refs map[string]struct{}) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	switch fn.Type() {
	case "identifier":
		refs[nodeText(fn, content)] = struct{}{}
	case "attribute":
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		if obj != nil && obj.Type() == "identifier" && attr != nil {
			refs[nodeText(attr, content)] = struct{}{}
		}
	}
}

func nodeText(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}
